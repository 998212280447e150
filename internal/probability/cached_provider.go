package probability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/logger"
	"github.com/yourusername/race-edge/internal/metrics"
)

const cacheMetricName = "prediction"

// CachedProvider memoizes predictions per race and feature set. Any change to
// odds, history or attributes is a new prediction.
type CachedProvider struct {
	provider Provider
	cache    *gocache.Cache
	log      *logger.ModelLogger
}

// NewCachedProvider wraps provider with a TTL cache
func NewCachedProvider(provider Provider, ttl time.Duration, log *logrus.Logger) *CachedProvider {
	if log == nil {
		log = logger.Discard()
	}
	return &CachedProvider{
		provider: provider,
		cache:    gocache.New(ttl, ttl*2),
		log:      logger.NewModelLogger(log),
	}
}

// predictionKey hashes the features sent to the model. Features that cannot be
// encoded (non-finite floats) report ok=false and bypass the cache.
func predictionKey(raceID string, participants []ParticipantFeatures) (string, bool) {
	data, err := json.Marshal(participants)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(data)
	return raceID + ":" + hex.EncodeToString(sum[:]), true
}

// Predict returns cached probabilities when available. Races without an id
// are never cached.
func (c *CachedProvider) Predict(ctx context.Context, raceID string, participants []ParticipantFeatures) ([]float64, error) {
	if raceID == "" {
		return c.provider.Predict(ctx, raceID, participants)
	}

	key, ok := predictionKey(raceID, participants)
	if !ok {
		return c.provider.Predict(ctx, raceID, participants)
	}
	if cached, found := c.cache.Get(key); found {
		if probs, ok := cached.([]float64); ok {
			metrics.RecordCacheHit(cacheMetricName)
			c.log.LogPredictionRequest(raceID, len(participants), true, 0)
			return append([]float64(nil), probs...), nil
		}
	}
	metrics.RecordCacheMiss(cacheMetricName)

	probs, err := c.provider.Predict(ctx, raceID, participants)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, append([]float64(nil), probs...))
	return probs, nil
}

// Invalidate drops the cached prediction for a race and feature set
func (c *CachedProvider) Invalidate(raceID string, participants []ParticipantFeatures) {
	if key, ok := predictionKey(raceID, participants); ok {
		c.cache.Delete(key)
	}
}

// DeleteExpired drops expired predictions
func (c *CachedProvider) DeleteExpired() {
	c.cache.DeleteExpired()
}

// ItemCount returns the number of cached predictions
func (c *CachedProvider) ItemCount() int {
	return c.cache.ItemCount()
}
