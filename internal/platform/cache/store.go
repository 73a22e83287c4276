// Package cache provides the TTL cache that shields the upstream volume source.
//
// A Store holds raw bytes with a per-entry expiry. Two backends exist: Memory, an
// in-process map, and RedisStore, shared across replicas. Typed adds a JSON codec on
// top so callers work with domain values and every hit is a fresh, immutable copy.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// DefaultTTL is used when a caller passes a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// Store is a key/value store with per-entry expiry.
// Get reports found=false for missing and expired keys alike.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}

// Typed is a typed view over a Store. Values are stored as JSON.
// Cache failures are never returned to the caller: a broken read is a miss and a
// failed write is logged and dropped.
type Typed[T any] struct {
	store Store
}

// NewTyped wraps store with a JSON codec for T.
func NewTyped[T any](store Store) *Typed[T] {
	return &Typed[T]{store: store}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Typed[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	if c == nil || c.store == nil {
		return zero, false
	}

	b, found, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
		return zero, false
	}
	if !found || len(b) == 0 {
		return zero, false
	}

	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		// Delete corrupted cache entry
		slog.Warn("dropping corrupted cache entry", "key", key, "error", err)
		_ = c.store.Delete(ctx, key)
		return zero, false
	}
	return out, true
}

// Set stores v under key until now+ttl. A non-positive ttl falls back to DefaultTTL.
func (c *Typed[T]) Set(ctx context.Context, key string, v T, ttl time.Duration) {
	if c == nil || c.store == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	b, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, b, ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
