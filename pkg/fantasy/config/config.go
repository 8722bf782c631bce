// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	APIBaseURL string
	APIToken   string
	Username   string
	Password   string

	ListenAddr   string
	PollInterval time.Duration
	CacheTTL     time.Duration
	RateLimit    float64
	RateBurst    int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL: getEnv("CRICKPICK_API_URL", ""),
		APIToken:   getEnv("CRICKPICK_API_TOKEN", ""),
		Username:   getEnv("CRICKPICK_USERNAME", ""),
		Password:   getEnv("CRICKPICK_PASSWORD", ""),
		ListenAddr: getEnv("CRICKPICK_LISTEN_ADDR", ":8080"),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("CRICKPICK_API_URL environment variable must be set")
	}

	pollStr := getEnv("CRICKPICK_POLL_INTERVAL", "30s")
	poll, err := time.ParseDuration(pollStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CRICKPICK_POLL_INTERVAL value: %w", err)
	}
	cfg.PollInterval = poll

	ttlStr := getEnv("CRICKPICK_CACHE_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CRICKPICK_CACHE_TTL value: %w", err)
	}
	cfg.CacheTTL = ttl

	rateStr := getEnv("CRICKPICK_RATE_LIMIT", "10")
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CRICKPICK_RATE_LIMIT value: %w", err)
	}
	cfg.RateLimit = rate

	burstStr := getEnv("CRICKPICK_RATE_BURST", "5")
	burst, err := strconv.Atoi(burstStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CRICKPICK_RATE_BURST value: %w", err)
	}
	cfg.RateBurst = burst

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// HasLogin reports whether username/password login is configured.
func (c *Config) HasLogin() bool {
	return c.Username != "" && c.Password != ""
}
