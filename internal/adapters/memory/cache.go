// Package memory contains in-process implementations of the cache and lock
// manager ports, for single-node deployments and tests. Production
// multi-node deployments substitute adapters backed by a shared service;
// the application only ever sees the port interfaces.
package memory

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time // zero = never expires
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache is an in-process TTL cache implementing secondary.Cache.
// Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewCache creates an empty cache using the wall clock.
func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

// NewCacheWithClock creates an empty cache with an injected clock.
// Tests use this to step time across TTL boundaries.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the live value for key. Expired entries are evicted and
// reported as misses, never returned stale.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

// Remember returns the live value for key, computing and storing it on a
// miss. Nothing is stored when compute fails.
func (c *Cache) Remember(key string, ttl time.Duration, compute func() (any, error)) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.getLocked(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.setLocked(key, v, ttl)
	return v, nil
}

// Add stores value only if key has no live entry. Atomic check-and-store.
func (c *Cache) Add(key string, value any, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.getLocked(key); ok {
		return false
	}
	c.setLocked(key, value, ttl)
	return true
}

// Increment atomically bumps the counter at key, starting from zero when
// absent or holding a non-integer. Counters never expire.
func (c *Cache) Increment(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var current int64
	if v, ok := c.getLocked(key); ok {
		if n, ok := v.(int64); ok {
			current = n
		}
	}
	current++
	c.entries[key] = entry{value: current}
	return current
}

// Forget evicts key.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) getLocked(key string) (any, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) setLocked(key string, value any, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
}
