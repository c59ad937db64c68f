// Package audit writes audit log entries off the request path. Entries are
// queued on a bounded channel and inserted by a small pool of workers.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/repositories"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned when entries are queued before Start or after Stop
	ErrNotRunning = errors.New("audit service not running")

	// ErrQueueFull is returned when the queue has no room; the entry is dropped
	ErrQueueFull = errors.New("audit queue full")
)

// Config holds configuration for the AuditService
type Config struct {
	BufferSize    int           // capacity of the entry queue
	WorkerCount   int           // concurrent inserters
	InsertTimeout time.Duration // per-entry database deadline
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:    1000,
		WorkerCount:   3,
		InsertTimeout: 5 * time.Second,
	}
}

// AuditService persists audit entries asynchronously
type AuditService struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
	cfg    Config

	queue chan *models.AuditLog
	wg    sync.WaitGroup

	// cancelled when Stop gives up, aborting in-flight inserts
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool

	written atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repositories.AuditRepository, logger *zap.Logger, cfg Config) *AuditService {
	defaults := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaults.WorkerCount
	}
	if cfg.InsertTimeout <= 0 {
		cfg.InsertTimeout = defaults.InsertTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &AuditService{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
		queue:  make(chan *models.AuditLog, cfg.BufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.started = true

	s.logger.Info("started audit service",
		zap.Int("worker_count", s.cfg.WorkerCount),
		zap.Int("buffer_size", s.cfg.BufferSize))
	return nil
}

// Stop closes the queue and waits up to timeout for queued entries to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.stopped = true
	pending := len(s.queue)
	close(s.queue)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_entries", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	defer s.cancel()
	select {
	case <-done:
		s.logger.Info("audit service stopped",
			zap.Uint64("written", s.written.Load()),
			zap.Uint64("failed", s.failed.Load()),
			zap.Uint64("dropped", s.dropped.Load()))
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Record stamps entry with the request id carried by ctx and queues it.
// Failures are logged; auditing never fails the calling operation.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if entry == nil {
		return
	}
	if entry.RequestID == "" {
		entry.RequestID = middleware.GetReqID(ctx)
	}
	if err := s.enqueue(entry); err != nil {
		s.logger.Warn("audit entry not queued",
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType),
			zap.Error(err))
	}
}

// enqueue never blocks. The lock keeps sends from racing the close in Stop.
func (s *AuditService) enqueue(entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return ErrNotRunning
	}

	select {
	case s.queue <- entry:
		return nil
	default:
		s.dropped.Add(1)
		return ErrQueueFull
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	for entry := range s.queue {
		if err := s.insert(entry); err != nil {
			s.failed.Add(1)
			s.logger.Error("failed to write audit entry",
				zap.Int("worker_id", id),
				zap.String("action", string(entry.Action)),
				zap.Error(err))
			continue
		}
		s.written.Add(1)
	}
}

func (s *AuditService) insert(entry *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.InsertTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// Stats is a point-in-time view of the service
type Stats struct {
	Running bool
	Pending int
	Written uint64
	Failed  uint64
	Dropped uint64
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	running := s.started && !s.stopped
	s.mu.Unlock()

	return Stats{
		Running: running,
		Pending: len(s.queue),
		Written: s.written.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
	}
}
