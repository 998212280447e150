package probability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for the model HTTP client
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // max consecutive failures before circuit break
	CircuitCooldown   time.Duration
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           5 * time.Second,
		MaxRetries:        3,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      2 * time.Second,
		RateLimit:         20.0,
		CircuitBreakerMax: 5,
		CircuitCooldown:   30 * time.Second,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and a
// circuit breaker that reopens after a cooldown.
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	cooldown          time.Duration

	mu                sync.Mutex
	consecutiveErrors int
	openedAt          time.Time
	lastError         error
	logger            *logrus.Entry
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Entry) *RateLimitedHTTPClient {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.Logger = nil

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(limit, 1),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		cooldown:          cfg.CircuitCooldown,
		logger:            logger,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *retryablehttp.Request) (*http.Response, error) {
	if err := c.allow(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}

	if resp.StatusCode < 500 {
		c.recordSuccess()
	} else {
		c.recordFailure(fmt.Errorf("status %d", resp.StatusCode))
	}
	return resp, nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

func (c *RateLimitedHTTPClient) allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openedAt.IsZero() {
		return nil
	}
	if c.cooldown > 0 && time.Since(c.openedAt) >= c.cooldown {
		// half-open: let one request through
		c.openedAt = time.Time{}
		c.consecutiveErrors = c.circuitBreakerMax - 1
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCircuitOpen, c.lastError)
}

func (c *RateLimitedHTTPClient) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors++
	c.lastError = err
	if c.circuitBreakerMax > 0 && c.consecutiveErrors >= c.circuitBreakerMax && c.openedAt.IsZero() {
		c.openedAt = time.Now()
		c.logger.WithField("consecutive_errors", c.consecutiveErrors).WithError(err).Warn("Circuit breaker opened")
	}
}

func (c *RateLimitedHTTPClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors = 0
	c.openedAt = time.Time{}
}

// customRetryPolicy retries network errors, 429 and gateway-class 5xx responses
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, err
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}
