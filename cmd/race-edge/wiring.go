package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/cache"
	"github.com/yourusername/race-edge/internal/config"
	"github.com/yourusername/race-edge/internal/distortion"
	"github.com/yourusername/race-edge/internal/opportunity"
	"github.com/yourusername/race-edge/internal/pipeline"
	"github.com/yourusername/race-edge/internal/probability"
)

// policyFromConfig maps the policy and portfolio sections onto a pipeline policy
func policyFromConfig(cfg *config.Config) pipeline.Policy {
	return pipeline.Policy{
		Distortion: distortion.Config{
			BiasThreshold:       cfg.Policy.BiasThreshold,
			SmartMoneyThreshold: cfg.Policy.SmartMoneyThreshold,
			SmartMoneyBonus:     cfg.Policy.SmartMoneyBonus,
		},
		Tiers: opportunity.Thresholds{
			PlatinumEV:        cfg.Policy.PlatinumEV,
			PlatinumIntensity: cfg.Policy.PlatinumIntensity,
			GoldEV:            cfg.Policy.GoldEV,
			GoldIntensity:     cfg.Policy.GoldIntensity,
			SilverEV:          cfg.Policy.SilverEV,
		},
		RiskTolerance: cfg.Portfolio.RiskTolerance,
		RoundingUnit:  cfg.Portfolio.RoundingUnit,
		Concurrency:   cfg.Policy.Concurrency,
	}
}

func buildCache(ctx context.Context, cfg *config.Config, log *logrus.Logger) (cache.DecisionCache, error) {
	return cache.New(ctx, cfg.Cache.Backend, cache.Options{
		TTL:       cfg.Cache.TTL(),
		MaxItems:  cfg.Cache.MaxItems,
		RedisAddr: cfg.Cache.RedisAddr,
		RedisPass: cfg.Cache.RedisPassword,
		RedisDB:   cfg.Cache.RedisDB,
		Logger:    log,
	})
}

// buildProvider returns nil when no model URL is configured
func buildProvider(cfg *config.Config, log *logrus.Logger) (*probability.HTTPProvider, *probability.CachedProvider) {
	if !cfg.ModelEnabled() {
		return nil, nil
	}

	clientCfg := probability.DefaultHTTPClientConfig()
	if t := cfg.Model.Timeout(); t > 0 {
		clientCfg.Timeout = t
	}
	clientCfg.MaxRetries = cfg.Model.RetryAttempts
	if cfg.Model.RateLimit > 0 {
		clientCfg.RateLimit = cfg.Model.RateLimit
	}

	httpProvider := probability.NewHTTPProvider(cfg.Model.URL, cfg.Model.APIKey, clientCfg, log)
	ttl := cfg.Model.CacheTTL()
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return httpProvider, probability.NewCachedProvider(httpProvider, ttl, log)
}

func loadConfig(path string, requireFile bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if requireFile {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadWithDefaults(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
