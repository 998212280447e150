package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/logger"
	"github.com/yourusername/race-edge/internal/metrics"
	"github.com/yourusername/race-edge/internal/models"
)

const defaultKeyPrefix = "race-edge:decision:"

// RedisConfig holds connection parameters for the Redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client and pings it to verify connectivity.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// RedisCache shares decisions across instances. Values are JSON with a TTL.
//
// Key schema:
//
//	{prefix}{fingerprint} - JSON encoded decision
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *logrus.Entry
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedisCache creates a RedisCache backed by the given client. A nil
// logger discards write failures.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, prefix string, log *logrus.Logger) *RedisCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if log == nil {
		log = logger.Discard()
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: prefix, log: log.WithField("component", "cache")}
}

func (rc *RedisCache) key(k string) string { return rc.prefix + k }

// Get retrieves a decision. Redis errors count as misses.
func (rc *RedisCache) Get(ctx context.Context, key string) (*models.Decision, bool) {
	data, err := rc.rdb.Get(ctx, rc.key(key)).Bytes()
	if err != nil {
		rc.miss()
		return nil, false
	}

	var decision models.Decision
	if err := json.Unmarshal(data, &decision); err != nil {
		rc.miss()
		return nil, false
	}

	rc.hits.Add(1)
	metrics.RecordCacheHit(metricName)
	return &decision, true
}

// Set stores a decision. Failures are logged at warn and the decision is
// still served uncached.
func (rc *RedisCache) Set(ctx context.Context, key string, decision *models.Decision) {
	if err := rc.Store(ctx, key, decision); err != nil {
		rc.log.WithError(err).WithFields(logrus.Fields{
			"key":         key,
			"decision_id": decision.ID,
		}).Warn("Failed to cache decision")
	}
}

// Store stores a decision and reports any error.
func (rc *RedisCache) Store(ctx context.Context, key string, decision *models.Decision) error {
	data, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("redis: marshal decision %s: %w", decision.ID, err)
	}
	if err := rc.rdb.Set(ctx, rc.key(key), data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set decision %s: %w", decision.ID, err)
	}
	return nil
}

// Lookup retrieves a decision, separating a miss from a Redis failure.
func (rc *RedisCache) Lookup(ctx context.Context, key string) (*models.Decision, error) {
	data, err := rc.rdb.Get(ctx, rc.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get decision: %w", err)
	}

	var decision models.Decision
	if err := json.Unmarshal(data, &decision); err != nil {
		return nil, fmt.Errorf("redis: unmarshal decision: %w", err)
	}
	return &decision, nil
}

// Ping checks the Redis connection.
func (rc *RedisCache) Ping(ctx context.Context) error {
	if err := rc.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (rc *RedisCache) Close() error {
	return rc.rdb.Close()
}

// Stats returns hit and miss counts; Items is not tracked.
func (rc *RedisCache) Stats() Stats {
	return newStats(rc.hits.Load(), rc.misses.Load(), 0)
}

func (rc *RedisCache) miss() {
	rc.misses.Add(1)
	metrics.RecordCacheMiss(metricName)
}
