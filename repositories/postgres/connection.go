package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cogzy/cogzy-api/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

const (
	driverName            = "postgres"
	defaultConnectTimeout = 5 * time.Second
	healthCheckTimeout    = 2 * time.Second
)

// DB is a PostgreSQL pool. Repositories reach it through GetExecutor so they
// transparently run inside a transaction carried by the context.
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// NewDB opens a pool and verifies it within cfg.ConnectTimeout
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := sqlx.ConnectContext(ctx, driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.LogString(), err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Debug("opened postgres pool",
		zap.String("connection", cfg.LogString()),
		zap.Int("max_open_conns", cfg.MaxOpenConns))
	return &DB{DB: pool, logger: logger}, nil
}

// WrapDB adapts an already opened *sql.DB, e.g. one created by sqlmock in tests
func WrapDB(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: sqlx.NewDb(db, driverName), logger: logger}
}

func (db *DB) Close() error {
	db.logger.Debug("closing postgres pool")
	return db.DB.Close()
}

// HealthCheck pings the pool and runs a trivial query, so a server that accepts
// connections but cannot execute statements is reported unhealthy
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	var one int
	if err := db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}
	return nil
}

// auditSchema mirrors the audit_logs migration without foreign keys, since the
// separate audit database holds no users or organizations
const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id UUID PRIMARY KEY,
	organization_id UUID,
	user_id UUID,
	action VARCHAR(100) NOT NULL,
	resource_type VARCHAR(100) NOT NULL,
	resource_id UUID,
	details JSONB,
	ip_address VARCHAR(45),
	user_agent TEXT,
	request_id VARCHAR(255),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_organization_id ON audit_logs(organization_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);
`

// InitAuditSchema creates audit_logs on a dedicated audit database
func (db *DB) InitAuditSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	db.logger.Info("audit schema ready")
	return nil
}
