// Package config provides configuration management for race-edge.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. RACE_EDGE_SERVER_PORT
	EnvPrefix = "RACE_EDGE"

	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration file and environment variables.
// The file is required. Environment variable placeholders in the YAML
// (${VAR_NAME}) are expanded after loading any .env file.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(data)
}

// LoadWithDefaults loads configuration like Load but tolerates a missing
// file, falling back to defaults and environment variables.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return load(data)
}

func load(data []byte) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := newViper()
	if len(data) > 0 {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return v
}

// setDefaults registers every key so environment overrides apply even when
// the file omits a section.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "race-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("policy.bias_threshold", 0.1)
	v.SetDefault("policy.smart_money_threshold", -0.15)
	v.SetDefault("policy.smart_money_bonus", 0.5)
	v.SetDefault("policy.silver_ev", 1.2)
	v.SetDefault("policy.gold_ev", 1.5)
	v.SetDefault("policy.platinum_ev", 2.0)
	v.SetDefault("policy.gold_intensity", 0.3)
	v.SetDefault("policy.platinum_intensity", 0.5)
	v.SetDefault("policy.concurrency", 0)

	v.SetDefault("portfolio.risk_tolerance", 0.5)
	v.SetDefault("portfolio.default_budget", 10000.0)
	v.SetDefault("portfolio.rounding_unit", 100.0)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 0)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 10)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("server.max_batch_size", 50)

	v.SetDefault("model.url", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.timeout_seconds", 5)
	v.SetDefault("model.retry_attempts", 3)
	v.SetDefault("model.rate_limit", 20.0)
	v.SetDefault("model.cache_ttl_seconds", 60)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.max_items", 10000)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "race_edge")
	v.SetDefault("database.user", "race_edge")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.schedule", "0 3 * * *")
	v.SetDefault("retention.days", 30)
	v.SetDefault("retention.cache_cleanup_schedule", "*/10 * * * *")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// splitList accepts both YAML lists and comma separated env values
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
