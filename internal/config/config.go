package config

import (
	"os"
	"strconv"
	"time"

	"trialdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Upstream UpstreamConfig `validate:"required"`
	Server   ServerConfig   `validate:"required"`
	Database DatabaseConfig
	Data     DataConfig
}

// UpstreamConfig holds settings for the external analytics backend.
// When BaseURL is empty the service runs in demo mode against the
// built-in deterministic dataset.
type UpstreamConfig struct {
	BaseURL     string
	APIKey      string
	StudyID     string
	Timeout     time.Duration
	MaxRetries  int
	RateLimit   int // requests per second
	DemoSubject int // subjects in the demo dataset when no backend is set
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port      string `validate:"required"`
	AdminPort string
	GinMode   string
}

// DatabaseConfig holds optional Postgres settings for scenario persistence.
// An empty URL disables persistence and scenario endpoints return 503.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// DataConfig holds workbook ingestion settings
type DataConfig struct {
	WorkbookFile  string
	WorkbookSheet string
	ExportDir     string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Upstream: loadUpstreamConfig(),
		Server:   loadServerConfig(),
		Database: loadDatabaseConfig(),
		Data:     loadDataConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadUpstreamConfig() UpstreamConfig {
	return UpstreamConfig{
		BaseURL:     getEnvOrDefault("UPSTREAM_BASE_URL", ""),
		APIKey:      getEnvOrDefault("UPSTREAM_API_KEY", ""),
		StudyID:     getEnvOrDefault("STUDY_ID", "STUDY-001"),
		Timeout:     getEnvDurationOrDefault("UPSTREAM_TIMEOUT", 15*time.Second),
		MaxRetries:  getEnvIntOrDefault("UPSTREAM_MAX_RETRIES", 3),
		RateLimit:   getEnvIntOrDefault("UPSTREAM_RATE_LIMIT", 10),
		DemoSubject: getEnvIntOrDefault("DEMO_SUBJECTS", 60),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:      getEnvOrDefault("PORT", "8080"),
		AdminPort: getEnvOrDefault("ADMIN_PORT", "8081"),
		GinMode:   getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadDataConfig() DataConfig {
	return DataConfig{
		WorkbookFile:  getEnvOrDefault("WORKBOOK_FILE", ""),
		WorkbookSheet: getEnvOrDefault("WORKBOOK_SHEET", "vitals"),
		ExportDir:     getEnvOrDefault("EXPORT_DIR", "./exports"),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Upstream.RateLimit <= 0 {
		return errors.ConfigInvalid("UPSTREAM_RATE_LIMIT must be positive")
	}
	if config.Upstream.BaseURL != "" && config.Upstream.APIKey == "" {
		return errors.ConfigInvalid("UPSTREAM_API_KEY is required when UPSTREAM_BASE_URL is set")
	}
	return nil
}

// DemoMode reports whether the service should generate its own dataset.
func (c *Config) DemoMode() bool {
	return c.Upstream.BaseURL == ""
}

// PersistenceEnabled reports whether scenario storage is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.Database.URL != ""
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
