// Package config provides configuration management for race-edge.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const (
	errLoadAWSConfig           = "failed to load AWS config: %w"
	errGetSecretFromAWSSecrets = "failed to get secret from AWS Secrets Manager: %w"
	errParseSecretJSON         = "failed to parse secret JSON: %w"
	errParseSecretBinary       = "failed to parse secret binary: %w"

	defaultSecretName = "race-edge/config"
)

var errNoSecretDataFound = errors.New("no secret data found in AWS Secrets Manager")

// SecretsOverlay represents the structure of secrets stored in AWS Secrets Manager
type SecretsOverlay struct {
	DatabasePassword string `json:"database_password"`
	ModelAPIKey      string `json:"model_api_key"`
	RedisPassword    string `json:"redis_password"`
}

// secretsGetter is the subset of the Secrets Manager client used here
type secretsGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func fetchSecrets(ctx context.Context, client secretsGetter, secretName string) (*SecretsOverlay, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf(errGetSecretFromAWSSecrets, err)
	}
	return parseSecretData(result)
}

// parseSecretData parses secret data from AWS response
func parseSecretData(result *secretsmanager.GetSecretValueOutput) (*SecretsOverlay, error) {
	var secrets SecretsOverlay
	switch {
	case result.SecretString != nil:
		if err := json.Unmarshal([]byte(*result.SecretString), &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretJSON, err)
		}
	case result.SecretBinary != nil:
		if err := json.Unmarshal(result.SecretBinary, &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretBinary, err)
		}
	default:
		return nil, errNoSecretDataFound
	}
	return &secrets, nil
}

// overlaySecretsOnConfig applies non-empty secrets to configuration
func overlaySecretsOnConfig(cfg *Config, secrets *SecretsOverlay) {
	if secrets.DatabasePassword != "" {
		cfg.Database.Password = secrets.DatabasePassword
	}
	if secrets.ModelAPIKey != "" {
		cfg.Model.APIKey = secrets.ModelAPIKey
	}
	if secrets.RedisPassword != "" {
		cfg.Cache.RedisPassword = secrets.RedisPassword
	}
}

// LoadSecretsFromAWS retrieves secrets from AWS Secrets Manager and overlays them onto the configuration
func LoadSecretsFromAWS(ctx context.Context, cfg *Config, region, secretName string) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return fmt.Errorf(errLoadAWSConfig, err)
	}

	secrets, err := fetchSecrets(ctx, secretsmanager.NewFromConfig(awsCfg), secretName)
	if err != nil {
		return err
	}

	overlaySecretsOnConfig(cfg, secrets)
	return nil
}

// ApplySecretsFromEnv overlays AWS secrets when AWS_SECRETS_ENABLED=true.
// AWS_REGION and AWS_SECRET_NAME select the secret.
func ApplySecretsFromEnv(ctx context.Context, cfg *Config) (bool, error) {
	if os.Getenv("AWS_SECRETS_ENABLED") != "true" {
		return false, nil
	}

	name := os.Getenv("AWS_SECRET_NAME")
	if name == "" {
		name = defaultSecretName
	}
	if err := LoadSecretsFromAWS(ctx, cfg, os.Getenv("AWS_REGION"), name); err != nil {
		return false, err
	}
	return true, nil
}
