// Package server exposes the decision pipeline over HTTP and a WebSocket
// stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/health"
	"github.com/yourusername/race-edge/internal/logger"
	"github.com/yourusername/race-edge/internal/metrics"
	"github.com/yourusername/race-edge/internal/pipeline"
	"github.com/yourusername/race-edge/internal/probability"
	"github.com/yourusername/race-edge/internal/repository"
)

// Config holds the HTTP server configuration
type Config struct {
	Addr            string
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	DefaultBudget   float64
	MaxBatchSize    int
	// MetricsPath mounts the Prometheus handler; empty disables it
	MetricsPath string
}

// Server serves the decision API
type Server struct {
	cfg        Config
	pipeline   *pipeline.Pipeline
	provider   probability.Provider
	repo       repository.DecisionRepository
	checker    *health.Checker
	hub        *Hub
	audit      *logger.AuditLogger
	logger     *logrus.Entry
	router     chi.Router
	httpServer *http.Server
}

// Option configures optional collaborators
type Option func(*Server)

// WithProvider enables model-filled probabilities
func WithProvider(p probability.Provider) Option {
	return func(s *Server) { s.provider = p }
}

// WithRepository enables decision storage and lookup
func WithRepository(repo repository.DecisionRepository) Option {
	return func(s *Server) { s.repo = repo }
}

// WithChecker replaces the default readiness checker
func WithChecker(c *health.Checker) Option {
	return func(s *Server) { s.checker = c }
}

// WithHub enables the decision stream
func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// New creates a server with all routes registered
func New(cfg Config, p *pipeline.Pipeline, log *logrus.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		audit:    logger.NewAuditLogger(log),
		logger:   log.WithField("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.checker == nil {
		s.checker = health.NewChecker(health.Config{Logger: log})
		s.checker.SetReady(true)
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", s.checker.HandleHealth)
	r.Get("/ready", s.checker.HandleReady)
	if s.cfg.MetricsPath != "" {
		r.Method(http.MethodGet, s.cfg.MetricsPath, metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.WriteTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.WriteTimeout))
		}
		r.Post("/decisions", s.handleCreateDecision)
		r.Post("/decisions/batch", s.handleBatch)
		if s.repo != nil {
			r.Get("/decisions/{id}", s.handleGetDecision)
		}
	})

	if s.hub != nil {
		r.Get("/ws/decisions", s.hub.HandleWS)
	}
	return r
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.Addr).Info("HTTP server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}
