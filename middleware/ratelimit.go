package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/cogzy/cogzy-api/services/ratelimit"
	"github.com/cogzy/cogzy-api/telemetry"
	"github.com/cogzy/cogzy-api/utils"
	"go.uber.org/zap"
)

// MsgTooManyRequests is returned with 429 responses
const MsgTooManyRequests = "Too many requests. Please try again later."

// RateLimitMiddleware throttles requests per client IP within a named scope
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	scope   string
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware
func NewRateLimitMiddleware(limiter ratelimit.Limiter, scope string, metrics *telemetry.Metrics, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		scope:   scope,
		metrics: metrics,
		logger:  logger,
	}
}

// Limit rejects requests over the limit with 429 and a Retry-After header.
// Limiter failures let the request through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientIP := ClientIP(r)

		result, err := m.limiter.CheckLimit(ctx, ratelimit.ScopeKey(m.scope, clientIP))
		if err != nil {
			m.logger.Warn("rate limit check failed, allowing request",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("scope", m.scope),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.RequestsRemaining))

		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			m.logger.Info("rate limit exceeded",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("scope", m.scope),
				zap.String("client_ip", clientIP))
			m.metrics.RateLimited(routePattern(r))

			_ = utils.WriteTooManyRequests(w, MsgTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
