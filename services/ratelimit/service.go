package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig describes a token bucket refilled at RequestsPerMinute and
// holding at most BurstSize tokens
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	CleanupInterval   time.Duration // memory limiter only
	IdleTTL           time.Duration // memory limiter only: buckets untouched this long are dropped
}

// AuthRateLimitConfig returns the limits applied to sign-up and sign-in
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
		IdleTTL:           10 * time.Minute,
	}
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed           bool
	Limit             int
	RequestsRemaining int
	RetryAfter        time.Duration
}

// Limiter decides whether one more request under key is allowed
type Limiter interface {
	CheckLimit(ctx context.Context, key string) (*RateLimitResult, error)
}

// ScopeKey builds the bucket key of a client for a named scope
func ScopeKey(scope, client string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, client)
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// MemoryRateLimiter is a process-local token bucket limiter
type MemoryRateLimiter struct {
	config  RateLimitConfig
	buckets map[string]*bucket
	mu      sync.Mutex
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemoryRateLimiter creates a new in-memory limiter
func NewMemoryRateLimiter(config RateLimitConfig, logger *zap.Logger) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		logger:  logger,
	}
}

func (l *MemoryRateLimiter) refillRate() float64 {
	return float64(l.config.RequestsPerMinute) / 60.0
}

// CheckLimit takes one token from key's bucket if one is available
func (l *MemoryRateLimiter) CheckLimit(_ context.Context, key string) (*RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	burst := float64(l.config.BurstSize)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: burst, lastUpdate: now}
		l.buckets[key] = b
	} else {
		elapsed := now.Sub(b.lastUpdate).Seconds()
		b.tokens = math.Min(burst, b.tokens+elapsed*l.refillRate())
		b.lastUpdate = now
	}

	result := &RateLimitResult{Limit: l.config.RequestsPerMinute}
	if b.tokens >= 1 {
		b.tokens--
		result.Allowed = true
		result.RequestsRemaining = int(b.tokens)
		return result, nil
	}

	missing := 1 - b.tokens
	result.RetryAfter = time.Duration(math.Ceil(missing/l.refillRate())) * time.Second
	return result, nil
}

// CleanupIdle drops buckets not touched within IdleTTL and returns how many were dropped
func (l *MemoryRateLimiter) CleanupIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.config.IdleTTL)
	removed := 0
	for key, b := range l.buckets {
		if b.lastUpdate.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker periodically drops idle buckets until ctx is cancelled
func (l *MemoryRateLimiter) StartCleanupWorker(ctx context.Context) {
	interval := l.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("started rate limit cleanup worker", zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			if removed := l.CleanupIdle(); removed > 0 {
				l.logger.Debug("dropped idle rate limit buckets", zap.Int("count", removed))
			}
		case <-ctx.Done():
			l.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}

// Size returns the number of tracked buckets
func (l *MemoryRateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RedisRateLimiter is a GCRA limiter shared by every instance through Redis
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisRateLimiter creates a limiter backed by client
func NewRedisRateLimiter(client *redis.Client, config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit: redis_rate.Limit{
			Rate:   config.RequestsPerMinute,
			Burst:  config.BurstSize,
			Period: time.Minute,
		},
	}
}

// CheckLimit consumes one request from key's allowance
func (l *RedisRateLimiter) CheckLimit(ctx context.Context, key string) (*RateLimitResult, error) {
	res, err := l.limiter.Allow(ctx, key, l.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	result := &RateLimitResult{
		Allowed:           res.Allowed > 0,
		Limit:             l.limit.Rate,
		RequestsRemaining: res.Remaining,
	}
	if !result.Allowed {
		result.RetryAfter = res.RetryAfter
	}
	return result, nil
}
