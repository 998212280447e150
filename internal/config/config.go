// Package config provides configuration management for race-edge.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Policy    PolicyConfig    `mapstructure:"policy" validate:"required"`
	Portfolio PortfolioConfig `mapstructure:"portfolio" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Model     ModelConfig     `mapstructure:"model"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Retention RetentionConfig `mapstructure:"retention"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// PolicyConfig holds the distortion and tier thresholds
type PolicyConfig struct {
	BiasThreshold       float64 `mapstructure:"bias_threshold" validate:"gte=0,lte=1"`
	SmartMoneyThreshold float64 `mapstructure:"smart_money_threshold" validate:"gte=-1,lte=0"`
	SmartMoneyBonus     float64 `mapstructure:"smart_money_bonus" validate:"gte=0"`
	SilverEV            float64 `mapstructure:"silver_ev" validate:"gt=0"`
	GoldEV              float64 `mapstructure:"gold_ev" validate:"gt=0"`
	PlatinumEV          float64 `mapstructure:"platinum_ev" validate:"gt=0"`
	GoldIntensity       float64 `mapstructure:"gold_intensity" validate:"gte=0"`
	PlatinumIntensity   float64 `mapstructure:"platinum_intensity" validate:"gte=0"`
	Concurrency         int     `mapstructure:"concurrency" validate:"gte=0"`
}

// PortfolioConfig holds allocation settings
type PortfolioConfig struct {
	RiskTolerance float64 `mapstructure:"risk_tolerance" validate:"gte=0,lte=1"`
	DefaultBudget float64 `mapstructure:"default_budget" validate:"gte=0"`
	RoundingUnit  float64 `mapstructure:"rounding_unit" validate:"gte=0"`
}

// ServerConfig represents the HTTP and gRPC listeners
type ServerConfig struct {
	Host                   string   `mapstructure:"host"`
	Port                   int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	GRPCPort               int      `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
	CORSOrigins            []string `mapstructure:"cors_origins"`
	ReadTimeoutSeconds     int      `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds    int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
	MaxBatchSize           int      `mapstructure:"max_batch_size" validate:"gte=0"`
}

// ModelConfig represents the external probability model service
type ModelConfig struct {
	URL             string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey          string  `mapstructure:"api_key"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts   int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// CacheConfig represents decision cache configuration
type CacheConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,cachebackend"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" validate:"gte=0"`
	MaxItems      int    `mapstructure:"max_items" validate:"gte=0"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// RetentionConfig represents scheduled housekeeping
type RetentionConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Schedule             string `mapstructure:"schedule" validate:"required_if=Enabled true"`
	Days                 int    `mapstructure:"days" validate:"gte=0"`
	CacheCleanupSchedule string `mapstructure:"cache_cleanup_schedule"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ModelEnabled reports whether a probability model is configured
func (c *Config) ModelEnabled() bool {
	return c.Model.URL != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN returns a PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

// HTTPAddr returns the HTTP listen address
func (s ServerConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GRPCAddr returns the gRPC listen address, or "" when gRPC is disabled
func (s ServerConfig) GRPCAddr() string {
	if s.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", s.Host, s.GRPCPort)
}

// ShutdownTimeout returns the graceful shutdown window
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// Timeout returns the model request timeout
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long model predictions are reused
func (m ModelConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLSeconds) * time.Second
}

// TTL returns the decision cache TTL
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MaxAge returns how long decisions are kept
func (r RetentionConfig) MaxAge() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}
