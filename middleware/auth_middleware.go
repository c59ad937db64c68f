package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/utils"
	"go.uber.org/zap"
)

// TokenValidator resolves a session token into an identity
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireAuth is a middleware that requires a valid session token, read from the
// Authorization header or the session cookie
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := auth.TokenFromRequest(r)
		if token == "" {
			m.logger.Debug("missing session token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		identity, err := m.validator.Authenticate(ctx, token)
		if err != nil {
			m.logger.Warn("session validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Your session is invalid or has expired. Please sign in again.")
			return
		}

		identity.IPAddress = ClientIP(r)
		identity.UserAgent = r.UserAgent()

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", identity.UserID.String()))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// ClientIP returns the client address of r without the port. RemoteAddr has
// already been rewritten by chi's RealIP middleware when it runs first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
