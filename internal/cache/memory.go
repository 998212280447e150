package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/race-edge/internal/metrics"
	"github.com/yourusername/race-edge/internal/models"
)

// MemoryCache provides in-process caching of decisions
type MemoryCache struct {
	cache     *gocache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewMemoryCache creates a new in-memory decision cache
func NewMemoryCache(ttl time.Duration, maxSize int) *MemoryCache {
	return &MemoryCache{
		cache:   gocache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached decision
func (mc *MemoryCache) Get(ctx context.Context, key string) (*models.Decision, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if result, found := mc.cache.Get(key); found {
		if decision, ok := result.(*models.Decision); ok {
			mc.hitCount++
			metrics.RecordCacheHit(metricName)
			return decision, true
		}
	}

	mc.missCount++
	metrics.RecordCacheMiss(metricName)
	return nil, false
}

// Set stores a decision. When the cache is full, expired entries are purged
// first and the write is dropped if that frees nothing.
func (mc *MemoryCache) Set(ctx context.Context, key string, decision *models.Decision) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.maxSize > 0 && mc.cache.ItemCount() >= mc.maxSize {
		mc.cache.DeleteExpired()
		if mc.cache.ItemCount() >= mc.maxSize {
			return
		}
	}

	mc.cache.Set(key, decision, mc.ttl)
}

// DeleteExpired drops expired entries
func (mc *MemoryCache) DeleteExpired() {
	mc.cache.DeleteExpired()
}

// Clear flushes the entire cache
func (mc *MemoryCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.cache.Flush()
	mc.hitCount = 0
	mc.missCount = 0
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() Stats {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return newStats(mc.hitCount, mc.missCount, mc.cache.ItemCount())
}
