// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Local API settings
	Port        int    `validate:"min=1,max=65535"`
	Environment string `validate:"oneof=development staging production"`

	// Portal API
	APIBaseURL  string        `validate:"required,url"`
	LiveURL     string        `validate:"omitempty,url"`
	Token       string
	HTTPTimeout time.Duration `validate:"min=0"`

	// Live channel reconnection
	ReconnectAttempts int           `validate:"min=0"`
	ReconnectDelay    time.Duration `validate:"min=0"`

	// Polling fallback while the live channel is down
	PollInterval time.Duration `validate:"min=0"`
	StatePath    string

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	// Security
	AllowedOrigins []string

	// Optional stores
	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration `validate:"min=0"`
}

var validate = validator.New()

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8090),
		Environment: getEnv("ENVIRONMENT", "development"),

		APIBaseURL:  getEnv("PORTAL_API_URL", "http://localhost:5000/api"),
		LiveURL:     getEnv("PORTAL_WS_URL", ""),
		Token:       getEnv("PORTAL_TOKEN", ""),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		ReconnectAttempts: getEnvInt("RECONNECT_ATTEMPTS", 5),
		ReconnectDelay:    getEnvDuration("RECONNECT_DELAY", time.Second),

		PollInterval: getEnvDuration("POLL_INTERVAL", 30*time.Second),
		StatePath:    getEnv("STATE_PATH", "data/portal.db"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		CacheTTL:    getEnvDuration("CACHE_TTL", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and production requirements
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Validate required fields in production
	if c.Environment == "production" {
		if !strings.HasPrefix(c.APIBaseURL, "https://") {
			return fmt.Errorf("PORTAL_API_URL must use https in production")
		}
		if c.LogFormat != "json" {
			return fmt.Errorf("LOG_FORMAT must be json in production")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("1500ms") or plain milliseconds
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
