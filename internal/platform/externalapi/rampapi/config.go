// Package rampapi provides a client for the remote ramp volume API.
package rampapi

import (
	"os"
	"strconv"
	"time"
)

// DefaultTimeout is used when neither the environment nor the caller sets a timeout.
const DefaultTimeout = 10 * time.Second

// Config holds configuration for the ramp API client.
type Config struct {
	APIKey        string        // sent as X-API-Key when set
	BaseURL       string        // Base URL for the API (e.g., "https://ramp.example.com/api")
	Timeout       time.Duration // HTTP request timeout, 0 when UPSTREAM_TIMEOUT is unset
	RatePerSecond int           // requests per second, 0 disables pacing
}

// LoadConfig loads ramp API configuration from environment variables.
// Unset or invalid values are left zero so callers can layer their own defaults.
func LoadConfig() Config {
	cfg := Config{
		APIKey:  os.Getenv("UPSTREAM_API_KEY"),
		BaseURL: os.Getenv("UPSTREAM_BASE_URL"),
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("UPSTREAM_RATE_PER_SECOND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RatePerSecond = n
		}
	}
	return cfg
}
