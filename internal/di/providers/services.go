package providers

import (
	"github.com/samber/do/v2"

	"github.com/libris-app/libris-server/internal/auth"
	"github.com/libris-app/libris-server/internal/logger"
	"github.com/libris-app/libris-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	verifier := do.MustInvoke[auth.CredentialVerifier](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, verifier, log.Logger), nil
}

// ProvideCatalogService provides the book catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hubHandle := do.MustInvoke[*HubHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, hubHandle.Hub, log.Logger), nil
}
