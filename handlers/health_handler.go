package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cogzy/cogzy-api/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"
)

// HealthChecker is implemented by the database wrapper
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Server    string `json:"server"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse is the body of GET /readyz
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     HealthChecker
	redis  *redis.Client // nil when Redis is not configured
	logger *zap.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db HealthChecker, redisClient *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// HandleHealth handles GET /health
// Always returns 200; the database field reports connectivity.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	database := statusUp
	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		database = statusDown
	}

	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Server:    statusUp,
		Database:  database,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// HandleLiveness handles GET /healthz
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadiness handles GET /readyz
// Returns 503 when the database, or Redis when configured, is unreachable.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database readiness check failed", zap.Error(err))
		checks["database"] = statusDown
		ready = false
	} else {
		checks["database"] = statusUp
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("redis readiness check failed", zap.Error(err))
			checks["redis"] = statusDown
			ready = false
		} else {
			checks["redis"] = statusUp
		}
	}

	status, httpStatus := "ready", http.StatusOK
	if !ready {
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, httpStatus, ReadinessResponse{Status: status, Checks: checks}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.HealthCheck(ctx)
}
