// Package memory provides an in-memory key-value store. It backs the
// sync coordinator when Redis is not configured and serves as the
// test double for the persistence layer.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/devsmkna/bookbuilder-sub000/internal/domain/shared"
)

// KeyValueStore is a map-backed key-value store. Values are stored as
// JSON so the round trip behaves like the Redis implementation.
type KeyValueStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKeyValueStore creates an empty in-memory store.
func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{data: make(map[string][]byte)}
}

// Get reads and deserializes a value. Returns shared.ErrNotFound for
// missing keys; a malformed value is treated as absent.
func (s *KeyValueStore) Get(_ context.Context, key string, dest any) error {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return shared.ErrNotFound
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return shared.ErrNotFound
	}
	return nil
}

// Set serializes and stores a value.
func (s *KeyValueStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

// Delete removes a key. Deleting a missing key is a no-op.
func (s *KeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (s *KeyValueStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
