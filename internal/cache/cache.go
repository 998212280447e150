// Package cache memoizes race decisions by the content hash of their input
// and policy.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/models"
)

// Supported backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// metricName labels cache hit/miss counters
const metricName = "decision"

// DecisionCache stores decisions keyed by input fingerprint
type DecisionCache interface {
	// Get may return the pointer that was stored, shared with every other
	// caller. Treat the decision as read-only.
	Get(ctx context.Context, key string) (*models.Decision, bool)
	Set(ctx context.Context, key string, decision *models.Decision)
	Stats() Stats
}

// Stats reports cache effectiveness
type Stats struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	Items    int     `json:"items"`
	HitRatio float64 `json:"hit_ratio"`
}

func newStats(hits, misses uint64, items int) Stats {
	s := Stats{Hits: hits, Misses: misses, Items: items}
	if total := hits + misses; total > 0 {
		s.HitRatio = float64(hits) / float64(total)
	}
	return s
}

// Options configures a cache backend
type Options struct {
	TTL       time.Duration
	MaxItems  int
	RedisAddr string
	RedisPass string
	RedisDB   int
	KeyPrefix string
	Logger    *logrus.Logger
}

// New builds the cache for the named backend. An empty backend means none.
func New(ctx context.Context, backend string, opts Options) (DecisionCache, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryCache(opts.TTL, opts.MaxItems), nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPass,
			DB:       opts.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return NewRedisCache(client, opts.TTL, opts.KeyPrefix, opts.Logger), nil
	case BackendNone, "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// Noop never stores anything
type Noop struct{}

// Get always misses
func (Noop) Get(context.Context, string) (*models.Decision, bool) { return nil, false }

// Set discards the decision
func (Noop) Set(context.Context, string, *models.Decision) {}

// Stats returns zero stats
func (Noop) Stats() Stats { return Stats{} }
