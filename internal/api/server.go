// Package api provides the HTTP server for the Libris GraphQL API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	graphqlws "github.com/graph-gophers/graphql-transport-ws/graphqlws"

	"github.com/libris-app/libris-server/internal/http/response"
	"github.com/libris-app/libris-server/internal/ratelimit"
	"github.com/libris-app/libris-server/internal/service"
)

// Server holds dependencies for the HTTP layer. The whole API surface
// is a single GraphQL endpoint plus a health check; queries and
// mutations go over POST, subscriptions over a websocket upgrade on the
// same path.
type Server struct {
	schema      *graphql.Schema
	authService *service.AuthService
	limiter     *ratelimit.KeyedRateLimiter
	router      *chi.Mux
	logger      *slog.Logger
}

// Options configures the HTTP server.
type Options struct {
	AllowedOrigins []string
	// Requests per second allowed per client IP; zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(schema *graphql.Schema, authService *service.AuthService, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		schema:      schema,
		authService: authService,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	if opts.RateLimitRPS > 0 {
		s.limiter = ratelimit.New(opts.RateLimitRPS, opts.RateLimitBurst)
	}

	s.setupMiddleware(opts)
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	// The websocket handler falls through to the relay handler for
	// plain HTTP requests, so one route covers both transports.
	graphQLHandler := graphqlws.NewHandlerFunc(s.schema, &relay.Handler{Schema: s.schema})

	s.router.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.withCurrentUser)
		r.Handle("/graphql", graphQLHandler)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
