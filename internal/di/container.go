// Package di provides dependency injection configuration for the Libris server.
package di

import (
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/libris-app/libris-server/internal/auth"
	"github.com/libris-app/libris-server/internal/config"
	"github.com/libris-app/libris-server/internal/di/providers"
	"github.com/libris-app/libris-server/internal/logger"
	"github.com/libris-app/libris-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage and events
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideBroadcaster)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideCredentialVerifier)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)

	// GraphQL and server
	do.Provide(injector, providers.ProvideSchema)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is
// running. This triggers lazy initialization of every provider in
// dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.HubHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*graphql.Schema](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
