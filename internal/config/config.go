// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrClassifierAPIKeyRequired is returned when CLASSIFIER_API_KEY is not set.
	ErrClassifierAPIKeyRequired = errors.New("config: CLASSIFIER_API_KEY is required")
	// ErrClassifierEndpointRequired is returned when CLASSIFIER_ENDPOINT is not set.
	ErrClassifierEndpointRequired = errors.New("config: CLASSIFIER_ENDPOINT is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Classifier settings
	ClassifierAPIKey   string `env:"CLASSIFIER_API_KEY, required" json:"-"` // Masked in JSON
	ClassifierEndpoint string `env:"CLASSIFIER_ENDPOINT, required" json:"classifier_endpoint"`
	ClassifierRetries  int    `env:"CLASSIFIER_RETRIES, default=2" json:"classifier_retries"`

	// Storage settings
	DataDir string `env:"DATA_DIR, default=/var/lib/soundstory" json:"data_dir"`

	// Catalog settings: path to a JSON track catalog. Empty uses the
	// built-in catalog covering every selectable track.
	CatalogPath string `env:"CATALOG_PATH" json:"catalog_path,omitempty"`

	// Optional S3 settings for session log archival
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "CLASSIFIER_API_KEY") {
			return nil, ErrClassifierAPIKeyRequired
		}
		if strings.Contains(err.Error(), "CLASSIFIER_ENDPOINT") {
			return nil, ErrClassifierEndpointRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.ClassifierAPIKey == "" {
		return ErrClassifierAPIKeyRequired
	}
	if c.ClassifierEndpoint == "" {
		return ErrClassifierEndpointRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, ClassifierEndpoint: %s, DataDir: %s, CatalogPath: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ClassifierEndpoint,
		c.DataDir,
		c.CatalogPath,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
