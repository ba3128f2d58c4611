package api

import (
	"net/http"
	"strings"

	"github.com/libris-app/libris-server/internal/graph"
	"github.com/libris-app/libris-server/internal/http/response"
)

// withCurrentUser resolves the Authorization header to a user and
// attaches it to the request context. Requests without a header proceed
// anonymously; resolvers decide which operations need authentication.
// A header that is present but invalid is rejected outright so clients
// learn their token is bad instead of silently losing privileges.
func (s *Server) withCurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			response.Unauthorized(w, "Invalid authorization header format", s.logger)
			return
		}

		user, err := s.authService.CurrentUser(r.Context(), tokenString)
		if err != nil {
			s.logger.Warn("Rejected bearer token", "error", err)
			response.Unauthorized(w, "Invalid or expired token", s.logger)
			return
		}

		ctx := graph.WithCurrentUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit rejects clients exceeding the per-IP request budget with
// 429. A nil limiter disables the check.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := getClientIP(r)
		if !s.limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
			response.TooManyRequests(w, "Too many requests. Please try again later.", s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request. The RealIP
// middleware already folds X-Forwarded-For and X-Real-IP into
// RemoteAddr, so only the port needs stripping here.
func getClientIP(r *http.Request) string {
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
