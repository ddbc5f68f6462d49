package redis

import (
	"context"
	"log/slog"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/achievement"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/record"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/session"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
	"github.com/devsmkna/bookbuilder-sub000/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHED STORE
// Read-through decorator over the record store. Every confirmed write
// refreshes the cached snapshot; a transient read failure is served
// from the last known snapshot so the engine can start offline.
// ══════════════════════════════════════════════════════════════════════════════

// CachedStore wraps a record.Store with a Redis-backed snapshot cache.
type CachedStore struct {
	inner  record.Store
	cache  *Cache
	logger *slog.Logger
}

var _ record.Store = (*CachedStore)(nil)

// NewCachedStore creates a caching decorator over the given store.
func NewCachedStore(inner record.Store, cache *Cache, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{inner: inner, cache: cache, logger: logger}
}

// GetStats fetches the canonical snapshot, refreshing the cache on
// success. On a transient failure the last cached snapshot is served
// instead; not-found passes through untouched.
func (s *CachedStore) GetStats(ctx context.Context, userID string) (*stats.UserStats, error) {
	snapshot, err := s.inner.GetStats(ctx, userID)
	if err == nil {
		s.refresh(ctx, userID, snapshot)
		return snapshot, nil
	}
	if shared.IsNotFound(err) {
		return nil, err
	}

	var cached stats.UserStats
	if cacheErr := s.cache.Get(ctx, s.statsKey(userID), &cached); cacheErr == nil {
		s.logger.Warn("record store unreachable, serving cached snapshot",
			"user_id", userID, "error", err)
		return &cached, nil
	}

	return nil, err
}

// PutStats delegates and refreshes the cached snapshot.
func (s *CachedStore) PutStats(ctx context.Context, userID string, patch stats.StatsPatch) (*stats.UserStats, error) {
	snapshot, err := s.inner.PutStats(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, userID, snapshot)
	return snapshot, nil
}

// IncrementStats delegates and refreshes the cached snapshot.
func (s *CachedStore) IncrementStats(ctx context.Context, userID string, delta stats.Delta) (*stats.UserStats, error) {
	snapshot, err := s.inner.IncrementStats(ctx, userID, delta)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, userID, snapshot)
	return snapshot, nil
}

// GetAchievements delegates to the inner store.
func (s *CachedStore) GetAchievements(ctx context.Context, userID string) ([]achievement.Achievement, error) {
	return s.inner.GetAchievements(ctx, userID)
}

// PutAchievements delegates to the inner store.
func (s *CachedStore) PutAchievements(ctx context.Context, userID string, achievements []achievement.Achievement) error {
	return s.inner.PutAchievements(ctx, userID, achievements)
}

// CreateWritingSession delegates and refreshes the cached snapshot.
func (s *CachedStore) CreateWritingSession(ctx context.Context, userID string, ws session.WritingSession, idempotencyKey string) (*stats.UserStats, error) {
	snapshot, err := s.inner.CreateWritingSession(ctx, userID, ws, idempotencyKey)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, userID, snapshot)
	return snapshot, nil
}

func (s *CachedStore) refresh(ctx context.Context, userID string, snapshot *stats.UserStats) {
	if snapshot == nil {
		return
	}
	if err := s.cache.Set(ctx, s.statsKey(userID), snapshot, TTLStatsSnapshot); err != nil {
		s.logger.Warn("refresh stats cache failed", "user_id", userID, "error", err)
	}
}

func (s *CachedStore) statsKey(userID string) string {
	return "progression:stats:" + userID
}
