// Package metrics provides centralized Prometheus metrics registry for race-edge.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/race-edge/internal/models"
)

const namespace = "race_edge"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	DecisionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decisions_total",
		Help:      "Total number of race decisions produced",
	})
	ValidationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total number of race inputs rejected by validation",
	})
	OpportunitiesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_total",
		Help:      "Total number of evaluated opportunities by tier",
	}, []string{"tier"})
	SmartMoneySignalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "smart_money_signals_total",
		Help:      "Total number of participants flagged with smart money",
	})
	RenormalizationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renormalizations_total",
		Help:      "Total number of portfolios scaled back to the budget",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP API requests by route and status code",
	}, []string{"route", "code"})
)

// Gauge metrics
var (
	LastAllocatedFraction = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_allocated_fraction",
		Help:      "Budget fraction allocated by the most recent decision",
	})
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Number of connected decision stream clients",
	})
)

// Histogram metrics
var (
	DecisionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "decision_duration_seconds",
		Help:      "Duration of a full decision pipeline run in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
	StakeFraction = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stake_fraction",
		Help:      "Distribution of recommended stake fractions",
		Buckets:   []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1.0},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(DecisionsTotal)
		registry.MustRegister(ValidationFailuresTotal)
		registry.MustRegister(OpportunitiesTotal)
		registry.MustRegister(SmartMoneySignalsTotal)
		registry.MustRegister(RenormalizationsTotal)
		registry.MustRegister(HTTPRequestsTotal)

		// Register gauge metrics
		registry.MustRegister(LastAllocatedFraction)
		registry.MustRegister(StreamClients)

		// Register histogram metrics
		registry.MustRegister(DecisionDuration)
		registry.MustRegister(StakeFraction)

		// Register model and cache metrics
		registry.MustRegister(ModelRequestsTotal)
		registry.MustRegister(ModelRequestDuration)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordDecision records every metric derived from a completed decision.
func RecordDecision(decision *models.Decision, durationSeconds float64) {
	DecisionsTotal.Inc()
	DecisionDuration.Observe(durationSeconds)

	for _, opp := range decision.Opportunities {
		OpportunitiesTotal.WithLabelValues(string(opp.Tier)).Inc()
	}
	SmartMoneySignalsTotal.Add(float64(decision.SmartMoneyCount()))

	for _, item := range decision.Portfolio.Items {
		StakeFraction.Observe(item.StakeFraction)
	}
	if decision.Portfolio.Renormalized {
		RenormalizationsTotal.Inc()
	}
	LastAllocatedFraction.Set(decision.Portfolio.TotalFraction)
}

// RecordValidationFailure records a rejected race input.
func RecordValidationFailure() {
	ValidationFailuresTotal.Inc()
}

// RecordHTTPRequest records an API request outcome.
func RecordHTTPRequest(route string, code int) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// UpdateStreamClients updates the connected stream clients gauge.
func UpdateStreamClients(count int) {
	StreamClients.Set(float64(count))
}
