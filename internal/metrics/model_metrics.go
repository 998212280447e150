// Package metrics defines probability-model and cache metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model metrics
var (
	ModelRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_requests_total",
		Help:      "Total number of probability model requests by status",
	}, []string{"status"})

	ModelRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "model_request_duration_seconds",
		Help:      "Latency of probability model requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// Cache metrics
var (
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits by cache name",
	}, []string{"cache"})

	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses by cache name",
	}, []string{"cache"})
)

// RecordModelRequest records a model request outcome.
// status should be one of: "success", "failure", "invalid"
func RecordModelRequest(status string, durationSeconds float64) {
	ModelRequestsTotal.WithLabelValues(status).Inc()
	ModelRequestDuration.Observe(durationSeconds)
}

// RecordCacheHit records a cache hit for the named cache.
func RecordCacheHit(cache string) {
	CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss for the named cache.
func RecordCacheMiss(cache string) {
	CacheMissesTotal.WithLabelValues(cache).Inc()
}
