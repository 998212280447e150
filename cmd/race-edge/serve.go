package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/race-edge/internal/config"
	"github.com/yourusername/race-edge/internal/database"
	"github.com/yourusername/race-edge/internal/health"
	"github.com/yourusername/race-edge/internal/logger"
	"github.com/yourusername/race-edge/internal/metrics"
	"github.com/yourusername/race-edge/internal/pipeline"
	"github.com/yourusername/race-edge/internal/repository"
	"github.com/yourusername/race-edge/internal/scheduler"
	"github.com/yourusername/race-edge/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the decision API, stream and housekeeping jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configFile, true)
	if err != nil {
		return err
	}

	// Load AWS secrets if enabled
	if _, err := config.ApplySecretsFromEnv(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("race-edge starting")

	metrics.InitRegistry()

	decisionCache, err := buildCache(ctx, cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to initialize decision cache: %w", err)
	}
	if closer, ok := decisionCache.(io.Closer); ok {
		defer closer.Close()
	}

	pl, err := pipeline.New(policyFromConfig(cfg), appLog, pipeline.WithCache(decisionCache))
	if err != nil {
		return err
	}

	checker := health.NewChecker(health.Config{
		System:  "race-edge",
		Version: Version,
		Logger:  appLog,
	})
	if pinger, ok := decisionCache.(health.Pinger); ok {
		checker.AddPinger("cache", pinger)
	}

	var repo repository.DecisionRepository = repository.NewMemoryDecisionRepository()
	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
		repo = repos.Decision
		checker.AddPinger("database", db)
		appLog.Info("Database connection established")
	}

	hub := server.NewHub(appLog)
	opts := []server.Option{
		server.WithRepository(repo),
		server.WithChecker(checker),
		server.WithHub(hub),
	}

	httpProvider, cachedProvider := buildProvider(cfg, appLog)
	if httpProvider != nil {
		defer httpProvider.Close()
		checker.AddCheck("model", httpProvider.HealthCheck)
		opts = append(opts, server.WithProvider(cachedProvider))
		appLog.WithField("url", cfg.Model.URL).Info("Probability model configured")
	}

	sched := scheduler.NewScheduler(appLog)
	if cfg.Retention.Enabled {
		if err := sched.ScheduleRetention(cfg.Retention.Schedule, repo, cfg.Retention.MaxAge()); err != nil {
			return err
		}
	}
	var janitors []scheduler.Janitor
	if j, ok := decisionCache.(scheduler.Janitor); ok {
		janitors = append(janitors, j)
	}
	if cachedProvider != nil {
		janitors = append(janitors, cachedProvider)
	}
	if len(janitors) > 0 && cfg.Retention.CacheCleanupSchedule != "" {
		if err := sched.ScheduleCacheCleanup(cfg.Retention.CacheCleanupSchedule, janitors...); err != nil {
			return err
		}
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv := server.New(server.Config{
		Addr:            cfg.Server.HTTPAddr(),
		CORSOrigins:     cfg.Server.CORSOrigins,
		ReadTimeout:     time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:    time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		ShutdownTimeout: cfg.Server.ShutdownTimeout(),
		DefaultBudget:   cfg.Portfolio.DefaultBudget,
		MaxBatchSize:    cfg.Server.MaxBatchSize,
		MetricsPath:     metricsPath,
	}, pl, appLog, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	if addr := cfg.Server.GRPCAddr(); addr != "" {
		grpcSrv := health.NewGRPCServer(addr, checker, 10*time.Second)
		g.Go(func() error { return grpcSrv.Run(gctx) })
	}

	checker.SetReady(true)
	appLog.WithField("addr", cfg.Server.HTTPAddr()).Info("race-edge ready")

	err = g.Wait()
	checker.SetReady(false)
	appLog.Info("race-edge stopped")
	return err
}
