package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"premarket-sentiment/pkg/logger"
)

// RedisStore is the durable Store backend. Every Set is a synchronous
// round trip, so a written entry is visible to any later caller in the
// same run and survives process restarts.
type RedisStore struct {
	client *redis.Client
	log    *logger.Logger
	prefix string
}

// NewRedisStore wraps an existing Redis client as a response cache.
func NewRedisStore(client *redis.Client, log *logger.Logger, prefix string) *RedisStore {
	return &RedisStore{client: client, log: log, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	raw, err := s.client.Get(ctx, s.prefixed(key)).Result()
	if err == redis.Nil {
		s.log.DebugContext(ctx, "Cache miss", logger.StringField("key", key))
		return "", false
	}
	if err != nil {
		// Read failures degrade to a miss; the caller refetches.
		s.log.Warn("Cache read failed, treating as miss", logger.StringField("key", key), logger.ErrorField(err))
		return "", false
	}

	payload, ok := decodeEntry(raw)
	if !ok {
		s.log.Warn("Corrupt cache entry, treating as miss", logger.StringField("key", key))
		return "", false
	}
	s.log.DebugContext(ctx, "Cache hit", logger.StringField("key", key))
	return payload, true
}

func (s *RedisStore) Set(ctx context.Context, key, payload string) error {
	raw, err := encodeEntry(payload)
	if err != nil {
		return err
	}
	// No TTL: staleness is bounded by the day embedded in the key.
	if err := s.client.Set(ctx, s.prefixed(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) prefixed(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}
