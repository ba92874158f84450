package cache

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store used for tests and cache-less runs.
// Entries never expire; a run's lifetime bounds theirs.
type MemoryStore struct {
	inner *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{inner: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	raw, found := s.inner.Get(key)
	if !found {
		return "", false
	}
	encoded, ok := raw.(string)
	if !ok {
		return "", false
	}
	return decodeEntry(encoded)
}

func (s *MemoryStore) Set(_ context.Context, key, payload string) error {
	raw, err := encodeEntry(payload)
	if err != nil {
		return err
	}
	s.inner.Set(key, raw, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
