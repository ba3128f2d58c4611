package providers

import (
	"context"
	"errors"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/libris-app/libris-server/internal/api"
	"github.com/libris-app/libris-server/internal/config"
	"github.com/libris-app/libris-server/internal/graph"
	"github.com/libris-app/libris-server/internal/logger"
	"github.com/libris-app/libris-server/internal/service"
)

// ProvideSchema provides the parsed GraphQL schema bound to the root
// resolver.
func ProvideSchema(i do.Injector) (*graphql.Schema, error) {
	catalog := do.MustInvoke[*service.CatalogService](i)
	authService := do.MustInvoke[*service.AuthService](i)
	hubHandle := do.MustInvoke[*HubHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	resolver := graph.NewResolver(catalog, authService, hubHandle.Hub, log.Logger)
	return graph.NewSchema(resolver), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the
// background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	schema := do.MustInvoke[*graphql.Schema](i)
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(schema, authService, log.Logger, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("GraphQL endpoint ready", "addr", srv.Addr, "path", "/graphql")

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
