package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache implementation backed by a shared Redis instance.
// Values are stored as JSON. Redis errors degrade to cache misses so a
// broker outage never fails the calling operation.
type Redis[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache with the given key prefix and TTL.
func NewRedis[T any](client *redis.Client, prefix string, ttl time.Duration) *Redis[T] {
	return &Redis[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get retrieves a value from Redis. Returns false if missing, expired,
// unreachable, or not decodable.
func (c *Redis[T]) Get(key string) (T, bool) {
	var zero T

	raw, err := c.client.Get(context.Background(), c.prefix+key).Bytes()
	if err != nil {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false
	}
	return value, true
}

// Set stores a value in Redis with the configured TTL.
func (c *Redis[T]) Set(key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(context.Background(), c.prefix+key, raw, c.ttl)
}

// Delete removes a value from Redis.
func (c *Redis[T]) Delete(key string) {
	c.client.Del(context.Background(), c.prefix+key)
}
