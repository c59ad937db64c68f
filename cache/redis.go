package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cogzy/cogzy-api/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errStaleListing = errors.New("listing loaded before the last invalidation")

// RedisCache stores workspace listings in Redis as JSON with a TTL.
// Redis failures are logged and treated as cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed listing cache
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached listing of an organization
func (c *RedisCache) Get(ctx context.Context, orgID uuid.UUID) ([]*models.WorkspaceSummary, bool) {
	data, err := c.client.Get(ctx, WorkspaceKey(orgID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("workspace cache read failed", zap.String("org_id", orgID.String()), zap.Error(err))
		}
		return nil, false
	}

	var workspaces []*models.WorkspaceSummary
	if err := json.Unmarshal(data, &workspaces); err != nil {
		c.logger.Warn("workspace cache entry corrupt", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, false
	}
	return workspaces, true
}

// Generation returns the organization's invalidation counter. A missing counter
// and a failed read both count as zero; a stale zero only loses the write.
func (c *RedisCache) Generation(ctx context.Context, orgID uuid.UUID) uint64 {
	gen, err := c.client.Get(ctx, GenerationKey(orgID)).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("workspace cache generation read failed", zap.String("org_id", orgID.String()), zap.Error(err))
	}
	return gen
}

// Set stores a listing loaded at generation gen. The counter is watched, so a
// concurrent Invalidate aborts the write.
func (c *RedisCache) Set(ctx context.Context, orgID uuid.UUID, gen uint64, workspaces []*models.WorkspaceSummary) {
	data, err := json.Marshal(workspaces)
	if err != nil {
		c.logger.Warn("failed to encode workspace cache entry", zap.Error(err))
		return
	}

	genKey := GenerationKey(orgID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleListing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, WorkspaceKey(orgID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleListing), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("discarded stale workspace listing", zap.String("org_id", orgID.String()))
	default:
		c.logger.Warn("workspace cache write failed", zap.String("org_id", orgID.String()), zap.Error(err))
	}
}

// Invalidate drops an organization's listing and bumps its generation
func (c *RedisCache) Invalidate(ctx context.Context, orgID uuid.UUID) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(orgID))
		pipe.Del(ctx, WorkspaceKey(orgID))
		return nil
	})
	if err != nil {
		c.logger.Warn("workspace cache invalidation failed", zap.String("org_id", orgID.String()), zap.Error(err))
	}
}
