// Package config provides configuration management for race-edge.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("cachebackend", validateCacheBackend)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateCacheBackend(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "memory", "redis", "none":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	p := cfg.Policy
	if !(p.SilverEV < p.GoldEV && p.GoldEV < p.PlatinumEV) {
		return fmt.Errorf("policy tier EV thresholds must be strictly increasing: silver %.2f < gold %.2f < platinum %.2f",
			p.SilverEV, p.GoldEV, p.PlatinumEV)
	}
	if p.GoldIntensity > p.PlatinumIntensity {
		return fmt.Errorf("policy gold_intensity cannot exceed platinum_intensity")
	}
	if p.SmartMoneyThreshold >= 0 {
		return fmt.Errorf("policy smart_money_threshold must be negative")
	}

	if cfg.Server.GRPCPort != 0 && cfg.Server.GRPCPort == cfg.Server.Port {
		return fmt.Errorf("server grpc_port must differ from port")
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/'")
	}

	if cfg.Retention.Enabled {
		if !cfg.Database.Enabled {
			return fmt.Errorf("retention requires database.enabled")
		}
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			return fmt.Errorf("invalid retention schedule %q: %w", cfg.Retention.Schedule, err)
		}
	}
	if s := cfg.Retention.CacheCleanupSchedule; s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("invalid cache cleanup schedule %q: %w", s, err)
		}
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "cachebackend":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: memory, redis, none\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
