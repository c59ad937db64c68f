package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/cogzy/cogzy-api/models"
	"github.com/google/uuid"
)

type memoryEntry struct {
	orgID      uuid.UUID
	workspaces []*models.WorkspaceSummary
	expiresAt  time.Time
}

// MemoryCache keeps at most maxSize organization listings in process,
// evicting the least recently read one first. Used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	byOrg   map[uuid.UUID]*list.Element
	recency *list.List // front is most recently used; values are *memoryEntry
	gens    map[uuid.UUID]uint64 // bumped by Invalidate; survives eviction
	maxSize int
	ttl     time.Duration

	hits, misses uint64
}

// NewMemoryCache creates an in-process cache holding up to maxSize listings for ttl each
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		byOrg:   make(map[uuid.UUID]*list.Element),
		gens:    make(map[uuid.UUID]uint64),
		recency: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached listing of an organization unless it has expired
func (c *MemoryCache) Get(_ context.Context, orgID uuid.UUID) ([]*models.WorkspaceSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byOrg[orgID]
	if ok && time.Now().After(el.Value.(*memoryEntry).expiresAt) {
		c.drop(el)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}

	c.hits++
	c.recency.MoveToFront(el)
	return el.Value.(*memoryEntry).workspaces, true
}

// Generation returns the organization's invalidation counter. Read it before
// loading a listing and hand it to Set.
func (c *MemoryCache) Generation(_ context.Context, orgID uuid.UUID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[orgID]
}

// Set stores a listing loaded at generation gen. A listing loaded before the
// latest Invalidate is discarded.
func (c *MemoryCache) Set(_ context.Context, orgID uuid.UUID, gen uint64, workspaces []*models.WorkspaceSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[orgID] != gen {
		return
	}

	expiresAt := time.Now().Add(c.ttl)
	if el, ok := c.byOrg[orgID]; ok {
		e := el.Value.(*memoryEntry)
		e.workspaces, e.expiresAt = workspaces, expiresAt
		c.recency.MoveToFront(el)
		return
	}

	for c.recency.Len() >= c.maxSize && c.recency.Len() > 0 {
		c.drop(c.recency.Back())
	}
	c.byOrg[orgID] = c.recency.PushFront(&memoryEntry{orgID: orgID, workspaces: workspaces, expiresAt: expiresAt})
}

// Invalidate drops an organization's listing and bumps its generation
func (c *MemoryCache) Invalidate(_ context.Context, orgID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[orgID]++

	if el, ok := c.byOrg[orgID]; ok {
		c.drop(el)
	}
}

// drop requires c.mu
func (c *MemoryCache) drop(el *list.Element) {
	c.recency.Remove(el)
	delete(c.byOrg, el.Value.(*memoryEntry).orgID)
}

// Stats is a snapshot of cache occupancy and effectiveness
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Stats returns a snapshot of the cache counters
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Size: c.recency.Len(), MaxSize: c.maxSize, Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// CleanupExpired drops every expired listing and returns how many there were
func (c *MemoryCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for el := c.recency.Front(); el != nil; {
		next := el.Next()
		if now.After(el.Value.(*memoryEntry).expiresAt) {
			c.drop(el)
			removed++
		}
		el = next
	}
	return removed
}

// StartCleanupWorker runs CleanupExpired every interval until ctx is done
func (c *MemoryCache) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CleanupExpired()
		}
	}
}
