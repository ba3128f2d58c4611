package graph

import (
	"context"

	"github.com/libris-app/libris-server/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyUser contextKey = "current_user"

// WithCurrentUser attaches the authenticated user to the context.
// The HTTP layer calls this after token verification; resolvers read
// it back with CurrentUser.
func WithCurrentUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous
// requests.
func CurrentUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
