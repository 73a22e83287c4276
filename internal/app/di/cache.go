package di

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"ramp_metrics/internal/app/config"
	"ramp_metrics/internal/platform/cache"
)

// NewCacheStore creates the result cache.
// If the redis backend is selected and Redis is available, it returns a Redis-backed store.
// Otherwise, it falls back to an in-process store; the returned *cache.Memory is then
// non-nil so the caller can schedule sweeps of expired entries.
func NewCacheStore(cfg config.Cache, rdb *redis.Client) (cache.Store, *cache.Memory) {
	if cfg.Backend == config.CacheRedis {
		if rdb != nil {
			return cache.NewRedisStore(rdb, cfg.Namespace), nil
		}
		slog.Warn("Redis unavailable. Falling back to in-memory cache.")
	}
	m := cache.NewMemory()
	return m, m
}
