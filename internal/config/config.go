package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// Azure / Microsoft Graph credentials. The AZURE_EMAIL_* variables take
	// precedence; the plain AZURE_* variables are a fallback for deployments
	// that share one app registration.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Reply reconciliation
	ReplyLookbackDays int
	ReplySyncInterval time.Duration
	ReplySyncEnabled  bool

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly
	_ = godotenv.Load()

	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// Azure credentials: AZURE_EMAIL_* preferred, AZURE_* as fallback
	cfg.AzureTenantID = envOr("AZURE_EMAIL_TENANT_ID", "AZURE_TENANT_ID")
	cfg.AzureClientID = envOr("AZURE_EMAIL_CLIENT_ID", "AZURE_CLIENT_ID")
	cfg.AzureClientSecret = envOr("AZURE_EMAIL_CLIENT_SECRET", "AZURE_CLIENT_SECRET")

	// REPLY_LOOKBACK_DAYS (default: 30)
	lookback := os.Getenv("REPLY_LOOKBACK_DAYS")
	if lookback == "" {
		cfg.ReplyLookbackDays = 30
	} else {
		days, err := strconv.Atoi(lookback)
		if err != nil {
			return nil, fmt.Errorf("REPLY_LOOKBACK_DAYS must be a valid integer: %w", err)
		}
		cfg.ReplyLookbackDays = days
	}

	// REPLY_SYNC_INTERVAL (default: 15m)
	interval := os.Getenv("REPLY_SYNC_INTERVAL")
	if interval == "" {
		cfg.ReplySyncInterval = 15 * time.Minute
	} else {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("REPLY_SYNC_INTERVAL must be a valid duration: %w", err)
		}
		cfg.ReplySyncInterval = d
	}

	// REPLY_SYNC_ENABLED (default: true)
	syncEnabled := os.Getenv("REPLY_SYNC_ENABLED")
	if syncEnabled == "" {
		cfg.ReplySyncEnabled = true
	} else {
		enabled, err := strconv.ParseBool(syncEnabled)
		if err != nil {
			return nil, fmt.Errorf("REPLY_SYNC_ENABLED must be a valid boolean: %w", err)
		}
		cfg.ReplySyncEnabled = enabled
	}

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	return cfg, nil
}

// envOr returns the first of the given environment variables that is set.
func envOr(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.ReplyLookbackDays <= 0 {
		return fmt.Errorf("ReplyLookbackDays must be positive")
	}
	if c.ReplySyncInterval <= 0 {
		return fmt.Errorf("ReplySyncInterval must be positive")
	}
	return nil
}

// HasAzureCredentials reports whether a complete Graph credential set is
// configured. The reconciliation job cannot run without one.
func (c *Config) HasAzureCredentials() bool {
	return c.AzureTenantID != "" && c.AzureClientID != "" && c.AzureClientSecret != ""
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if !c.HasAzureCredentials() {
		return fmt.Errorf("Azure credentials (AZURE_EMAIL_TENANT_ID, AZURE_EMAIL_CLIENT_ID, AZURE_EMAIL_CLIENT_SECRET) are required in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.Int("reply_lookback_days", c.ReplyLookbackDays),
		slog.Duration("reply_sync_interval", c.ReplySyncInterval),
		slog.Bool("reply_sync_enabled", c.ReplySyncEnabled),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Bool("azure_credentials_set", c.HasAzureCredentials()),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	)
}
