package auth

import (
	"context"

	"github.com/uptaskhq/uptask-server/internal/model"
)

type contextKey struct{}

// WithUser attaches the authenticated account's profile to the context.
func WithUser(ctx context.Context, u model.Profile) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the authenticated account's profile, if present.
func FromContext(ctx context.Context) (model.Profile, bool) {
	u, ok := ctx.Value(contextKey{}).(model.Profile)
	return u, ok
}

// UserID returns the authenticated account id, or 0 when unauthenticated.
func UserID(ctx context.Context) int64 {
	u, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return u.ID
}
