// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"ramp_metrics/internal/app/config"
	"ramp_metrics/internal/feature/volumes/adapters"
	"ramp_metrics/internal/feature/volumes/usecase"
	"ramp_metrics/internal/platform/db"
	"ramp_metrics/internal/platform/externalapi/rampapi"
	infrahttp "ramp_metrics/internal/platform/http"
	"ramp_metrics/internal/shared/ratelimiter"
)

// NewRampAPI creates a fully configured RampAPI with HTTP client and rate limiter.
func NewRampAPI(up config.Upstream) (*rampapi.RampAPI, error) {
	cfg, err := rampConfig(up)
	if err != nil {
		return nil, err
	}

	var limiter ratelimiter.RateLimiterInterface
	if cfg.RatePerSecond > 0 {
		limiter = ratelimiter.NewRateLimiter(cfg.RatePerSecond, time.Second)
	}
	return rampapi.NewRampAPI(cfg, infrahttp.NewHTTPClient(cfg.Timeout), limiter), nil
}

// rampConfig merges the UPSTREAM_* environment with the config file.
// Environment variables win; anything still unset falls back to the file, then to the package default.
func rampConfig(up config.Upstream) (rampapi.Config, error) {
	cfg := rampapi.LoadConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = up.BaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = up.APIKey
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = up.RatePerSecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = up.Timeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = rampapi.DefaultTimeout
	}
	if cfg.BaseURL == "" {
		return rampapi.Config{}, fmt.Errorf("upstream.base_url is required for the http upstream")
	}
	return cfg, nil
}

// OpenDatabase opens the rollup database selected by upstream.kind and migrates it.
func OpenDatabase(up config.Upstream) (*gorm.DB, error) {
	cfg := db.LoadConfigFromEnv()
	cfg.Driver = up.Kind
	if up.SQLitePath != "" {
		cfg.SQLitePath = up.SQLitePath
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb, &adapters.VolumeModel{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

// NewVolumeSource returns the VolumeSource for upstream.kind.
// The SQL kinds read the rollup table; gdb must be non-nil for them.
func NewVolumeSource(up config.Upstream, gdb *gorm.DB) (usecase.VolumeSource, error) {
	switch up.Kind {
	case config.UpstreamHTTP:
		api, err := NewRampAPI(up)
		if err != nil {
			return nil, err
		}
		return api, nil
	case config.UpstreamPostgres, config.UpstreamSQLite:
		if gdb == nil {
			return nil, fmt.Errorf("upstream %q needs a database connection", up.Kind)
		}
		return adapters.NewVolumeRepository(gdb), nil
	default:
		return nil, fmt.Errorf("unsupported upstream kind %q", up.Kind)
	}
}
