package postgres

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogzy/cogzy-api/config"
	"go.uber.org/zap"
)

// Opener opens a pool for a database configuration
type Opener func(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error)

// PoolRegistry hands out one connection pool per DSN. It is created at startup and
// closed once during shutdown; every pool it opened is closed by CloseAll.
type PoolRegistry struct {
	mu     sync.Mutex
	pools  map[string]*registeredPool
	open   Opener
	closed bool
	logger *zap.Logger
}

type registeredPool struct {
	db    *DB
	label string // redacted connection description for logs
}

// NewPoolRegistry creates a registry that opens pools with NewDB
func NewPoolRegistry(logger *zap.Logger) *PoolRegistry {
	return NewPoolRegistryWithOpener(NewDB, logger)
}

// NewPoolRegistryWithOpener creates a registry with a custom pool opener
func NewPoolRegistryWithOpener(open Opener, logger *zap.Logger) *PoolRegistry {
	return &PoolRegistry{
		pools:  make(map[string]*registeredPool),
		open:   open,
		logger: logger,
	}
}

// Get returns the pool for cfg's DSN, opening it on first use
func (r *PoolRegistry) Get(cfg config.DatabaseConfig) (*DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("pool registry is closed")
	}

	dsn := cfg.DSN()
	if p, ok := r.pools[dsn]; ok {
		return p.db, nil
	}

	db, err := r.open(cfg, r.logger)
	if err != nil {
		return nil, err
	}
	r.pools[dsn] = &registeredPool{db: db, label: cfg.LogString()}

	r.logger.Debug("database pool registered", zap.String("connection", cfg.LogString()))
	return db, nil
}

// Len returns the number of open pools
func (r *PoolRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pools)
}

// Each calls fn for every open pool with its redacted label
func (r *PoolRegistry) Each(fn func(label string, db *DB)) {
	r.mu.Lock()
	pools := make([]*registeredPool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.Unlock()

	for _, p := range pools {
		fn(p.label, p.db)
	}
}

// CloseAll closes every pool and empties the registry. Later Get calls fail.
func (r *PoolRegistry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for dsn, p := range r.pools {
		if err := p.db.Close(); err != nil {
			r.logger.Error("failed to close database connection",
				zap.String("connection", p.label),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", p.label, err))
		} else {
			r.logger.Info("database connection closed", zap.String("connection", p.label))
		}
		delete(r.pools, dsn)
	}
	r.closed = true

	r.logger.Info("all database connections processed")
	return errors.Join(errs...)
}
