package notes

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the notes memo in a Redis hash, one field per SKU.
// HSET on an existing field overwrites, which matches the last-write-wins
// read semantics of the CSV store.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore parses redisURL, verifies connectivity, and returns the
// store bound to the given hash key.
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// Load reads the whole hash.
func (s *RedisStore) Load(ctx context.Context) (map[string]string, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return map[string]string{}, fmt.Errorf("redis HGETALL %s: %w", s.key, err)
	}
	return entries, nil
}

// Append stores one field, write-through.
func (s *RedisStore) Append(ctx context.Context, sku, notes string) error {
	if err := s.client.HSet(ctx, s.key, sku, notes).Err(); err != nil {
		return fmt.Errorf("redis HSET %s %s: %w", s.key, sku, err)
	}
	return nil
}

// Close releases the client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
