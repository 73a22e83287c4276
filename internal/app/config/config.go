// Package config loads the application configuration from an optional YAML file
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	UpstreamPostgres = "postgres"
	UpstreamSQLite   = "sqlite"
	UpstreamHTTP     = "http"
)

// Server is the HTTP listener configuration.
type Server struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	// EnableCacheFlush exposes DELETE /v1/metrics/cache. Off unless set.
	EnableCacheFlush bool `yaml:"enable_cache_flush"`
}

// Cache selects the result cache backend.
type Cache struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Namespace     string        `yaml:"namespace"`
}

// Upstream selects where volume rows come from.
type Upstream struct {
	Kind          string        `yaml:"kind"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond int           `yaml:"rate_per_second"`
	SQLitePath    string        `yaml:"sqlite_path"`
}

// Ingest configures cmd/ingest.
type Ingest struct {
	Cron string `yaml:"cron"`
	Days int    `yaml:"days"`
}

// Config holds all application configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Cache    Cache    `yaml:"cache"`
	Upstream Upstream `yaml:"upstream"`
	Ingest   Ingest   `yaml:"ingest"`
	Timezone string   `yaml:"timezone"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("ENABLE_CACHE_FLUSH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ENABLE_CACHE_FLUSH: %w", err)
		}
		c.Server.EnableCacheFlush = b
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	if v := os.Getenv("CACHE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_SWEEP_INTERVAL: %w", err)
		}
		c.Cache.SweepInterval = d
	}
	if v := os.Getenv("UPSTREAM_KIND"); v != "" {
		c.Upstream.Kind = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Upstream.SQLitePath = v
	}
	if v := os.Getenv("APP_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("INGEST_CRON"); v != "" {
		c.Ingest.Cron = v
	}
	if v := os.Getenv("INGEST_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INGEST_DAYS: %w", err)
		}
		c.Ingest.Days = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = time.Minute
	}
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = "volumes"
	}
	if c.Upstream.Kind == "" {
		c.Upstream.Kind = UpstreamPostgres
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 10 * time.Second
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Ingest.Days == 0 {
		c.Ingest.Days = 35
	}
}

// Validate checks that all fields hold supported values.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", CacheMemory, CacheRedis, c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache.sweep_interval must not be negative")
	}
	switch c.Upstream.Kind {
	case UpstreamPostgres, UpstreamSQLite, UpstreamHTTP:
	default:
		return fmt.Errorf("upstream.kind must be one of postgres, sqlite, http, got %q", c.Upstream.Kind)
	}
	if c.Upstream.RatePerSecond < 0 {
		return fmt.Errorf("upstream.rate_per_second must not be negative")
	}
	if c.Ingest.Days <= 0 {
		return fmt.Errorf("ingest.days must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Clock returns a clock that reports the current time in the configured timezone.
func (c *Config) Clock() (func() time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
