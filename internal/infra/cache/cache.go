// Package cache provides TTL caches behind the generic cache port: a purely
// in-process one and a Redis-backed one for multi-instance deployments.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value    T
	expireAt int64 // unix nanos
}

// InMemory is a thread-safe in-process cache with a single TTL for all
// entries. The engine uses it for interest-configuration snapshots, so the
// working set stays tiny and a periodic sweep is enough.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]item[T]
	ttl   time.Duration
}

// New creates an in-memory cache whose entries expire after ttl.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
	go c.sweep()
	return c
}

// Get returns the cached value, or false if the key is absent or expired.
// Expired entries are left for the sweeper; Get stays read-only.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || time.Now().UnixNano() > it.expireAt {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key with the cache's TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{
		value:    value,
		expireAt: time.Now().Add(c.ttl).UnixNano(),
	}
}

// Delete removes key from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// sweep drops expired entries once per TTL period for the cache's lifetime.
func (c *InMemory[T]) sweep() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now().UnixNano()
		c.mu.Lock()
		for k, it := range c.items {
			if now > it.expireAt {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}
