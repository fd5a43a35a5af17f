// Package config holds the application configuration for the relay service.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	pkgconfig "github.com/lewisedginton/support_relay/pkg/config"
	"github.com/lewisedginton/support_relay/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"support-relay"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// HTTP server configuration
	HTTP pkgconfig.HTTPServerConfig `yaml:"http,inline"`

	// Telegram configuration
	Telegram TelegramConfig `yaml:"telegram,inline"`

	// WeCom configuration
	WeCom WeComConfig `yaml:"wecom,inline"`

	// Translation configuration
	Translate TranslateConfig `yaml:"translate,inline"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage,inline"`

	// Relay behaviour configuration
	Relay RelayConfig `yaml:"relay,inline"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,inline"`

	// Health check configuration
	Health HealthConfig `yaml:"health,inline"`

	// Metrics configuration
	Metrics pkgconfig.MetricsConfig `yaml:"metrics,inline"`
}

// Load reads configuration from an optional YAML file and the environment.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := pkgconfig.GetConfig(&cfg, path, true); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	if err := c.HTTP.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := c.Metrics.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := c.Telegram.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := c.WeCom.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := c.Translate.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Storage.Backend != "local" && c.Storage.Backend != "s3" {
		result = multierror.Append(result, fmt.Errorf("storage backend must be 'local' or 's3', got %q", c.Storage.Backend))
	}

	if c.Relay.RouteIndexCapacity <= 0 {
		result = multierror.Append(result, fmt.Errorf("route_index_capacity must be greater than 0"))
	}

	if c.Relay.AckInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("ack_interval must be greater than 0"))
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(strings.ToLower(c.Logging.Level))
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("http_port", c.HTTP.Port),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.StringField("storage_backend", c.Storage.Backend),
		logger.BoolField("telegram_configured", c.Telegram.Enabled()),
		logger.BoolField("wecom_configured", c.WeCom.Enabled()),
		logger.StringField("admin_language", c.Translate.AdminLanguage),
		logger.IntField("route_index_capacity", c.Relay.RouteIndexCapacity),
	)
}
