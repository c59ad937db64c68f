package middleware

import (
	"context"

	"github.com/cogzy/cogzy-api/auth"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the authenticated identity
	IdentityKey contextKey = "identity"
)

// GetRequestIDFromContext retrieves the request ID assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetIdentityFromContext retrieves the authenticated identity, or nil
func GetIdentityFromContext(ctx context.Context) *auth.Identity {
	if val := ctx.Value(IdentityKey); val != nil {
		if id, ok := val.(*auth.Identity); ok {
			return id
		}
	}
	return nil
}

// WithIdentity adds an authenticated identity to the context
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}
