// Package health provides liveness and readiness checks for the HTTP and gRPC
// surfaces.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/logger"
)

// Pinger defines the interface for checking a dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// HealthResponse represents the JSON response for the liveness endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	System    string `json:"system"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ReadyResponse represents the JSON response for the readiness endpoint.
type ReadyResponse struct {
	Status   string            `json:"status"`
	System   string            `json:"system"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Checker runs readiness checks against registered dependencies.
type Checker struct {
	system  string
	version string
	timeout time.Duration
	logger  *logrus.Entry

	mu     sync.RWMutex
	ready  bool
	checks []namedCheck
}

// Config holds the configuration for the checker.
type Config struct {
	System  string
	Version string
	Timeout time.Duration
	Logger  *logrus.Logger
}

// NewChecker creates a new readiness checker. It starts out not ready.
func NewChecker(cfg Config) *Checker {
	if cfg.System == "" {
		cfg.System = "race-edge"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Checker{
		system:  cfg.System,
		version: cfg.Version,
		timeout: cfg.Timeout,
		logger:  log.WithField("component", "health"),
	}
}

// AddCheck registers a named dependency check.
func (c *Checker) AddCheck(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, namedCheck{name: name, fn: fn})
}

// AddPinger registers a dependency exposing Ping.
func (c *Checker) AddPinger(name string, p Pinger) {
	c.AddCheck(name, p.Ping)
}

// SetReady marks the service as ready to accept traffic.
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service has been marked ready.
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// System returns the reported system name.
func (c *Checker) System() string {
	return c.system
}

// Check runs every registered check and reports the aggregate status.
func (c *Checker) Check(ctx context.Context) (ReadyResponse, bool) {
	start := time.Now()

	c.mu.RLock()
	ready := c.ready
	checks := make([]namedCheck, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	results := make(map[string]string, len(checks)+1)
	allHealthy := true

	if ready {
		results["service"] = "ok"
	} else {
		allHealthy = false
		results["service"] = "not_ready"
	}

	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := check.fn(checkCtx)
		cancel()

		if err != nil {
			allHealthy = false
			results[check.name] = fmt.Sprintf("error: %v", err)
			c.logger.WithError(err).WithField("check", check.name).Warn("Readiness check failed")
			continue
		}
		results[check.name] = "ok"
	}

	response := ReadyResponse{
		Status:   "ok",
		System:   c.system,
		Checks:   results,
		Duration: time.Since(start).String(),
	}
	if !allHealthy {
		response.Status = "not_ready"
	}
	return response, allHealthy
}

// HandleHealth handles the liveness endpoint.
func (c *Checker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		System:    c.system,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// HandleReady handles the readiness endpoint.
func (c *Checker) HandleReady(w http.ResponseWriter, r *http.Request) {
	response, healthy := c.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}
