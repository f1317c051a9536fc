package cache

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the asset read cache.
type Config struct {
	// Enabled controls whether caching is active. When false, no middleware
	// is applied and all reads go straight to the store.
	Enabled bool

	// TTL bounds how long a cached read is served before it is refetched,
	// even when no write invalidated it.
	TTL time.Duration

	// MaxSize is the maximum number of cached responses.
	MaxSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		TTL:     30 * time.Second,
		MaxSize: 1000,
	}
}

// ConfigFromEnv reads cache configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - REGISTRY_CACHE_ENABLED: "true" or "false" (default: "true")
//   - REGISTRY_CACHE_TTL: duration in seconds (default: 30)
//   - REGISTRY_CACHE_MAX_SIZE: max cached responses (default: 1000)
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("REGISTRY_CACHE_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("REGISTRY_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("REGISTRY_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}

	return cfg
}
