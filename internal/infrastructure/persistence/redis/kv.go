package redis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY-VALUE STORE ADAPTER
// Adapts Cache to the sync coordinator's KeyValueStore contract.
// ══════════════════════════════════════════════════════════════════════════════

// KeyValueStore persists small per-user values (buffer state, daily
// goal) in Redis. Missing keys map to shared.ErrNotFound; malformed
// persisted values are treated as absent rather than fatal - losing
// one day's buffer beats failing the writer's session.
type KeyValueStore struct {
	cache  *Cache
	logger *slog.Logger
}

// NewKeyValueStore creates a KeyValueStore over the given cache.
func NewKeyValueStore(cache *Cache, logger *slog.Logger) *KeyValueStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyValueStore{cache: cache, logger: logger}
}

// Get reads and deserializes a value.
func (s *KeyValueStore) Get(ctx context.Context, key string, dest any) error {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCacheMiss) {
		return shared.ErrNotFound
	}
	if errors.Is(err, ErrCacheSerialization) {
		s.logger.Warn("discarding malformed persisted value", "key", key, "error", err)
		return shared.ErrNotFound
	}
	return err
}

// Set serializes and writes a value with the buffer TTL.
func (s *KeyValueStore) Set(ctx context.Context, key string, value any) error {
	return s.cache.Set(ctx, key, value, TTLBufferState)
}

// Delete removes a key.
func (s *KeyValueStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}
