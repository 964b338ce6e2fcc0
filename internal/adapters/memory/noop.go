package memory

import "time"

// NoopCache is an always-miss cache: Get never hits, Remember computes on
// every call, Add always reports success, counters stay at their increment
// result for the single call only. Useful in tests that must observe every
// underlying call, and as an explicit "caching disabled" wiring.
type NoopCache struct{}

// NewNoopCache creates a NoopCache.
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

// Get always misses.
func (NoopCache) Get(key string) (any, bool) { return nil, false }

// Remember computes every time and stores nothing.
func (NoopCache) Remember(key string, ttl time.Duration, compute func() (any, error)) (any, error) {
	return compute()
}

// Add always reports the key as newly stored.
func (NoopCache) Add(key string, value any, ttl time.Duration) bool { return true }

// Increment always returns 1; nothing accumulates.
func (NoopCache) Increment(key string) int64 { return 1 }

// Forget does nothing.
func (NoopCache) Forget(key string) {}
