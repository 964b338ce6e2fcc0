// Package secondary defines the secondary ports (driven adapters) for the
// sync layer. These are the interfaces through which the application drives
// external systems: the shared cache, the distributed lock manager, the
// remote CRM providers, and local persistence.
package secondary

import "time"

// Cache defines the secondary port for the shared key/value cache.
//
// Implementations must be safe for concurrent use. A time-to-live of zero
// or less means the entry does not expire on its own.
type Cache interface {
	// Get returns the cached value for key, or false if absent or expired.
	Get(key string) (any, bool)

	// Remember returns the cached value for key, computing and storing it
	// with the given TTL on a miss. The compute error is returned as-is and
	// nothing is stored when compute fails.
	Remember(key string, ttl time.Duration, compute func() (any, error)) (any, error)

	// Add stores value under key only if the key is currently absent.
	// Returns true if the value was stored. The check-and-store is atomic.
	Add(key string, value any, ttl time.Duration) bool

	// Increment atomically increments the integer counter at key and
	// returns the new value. An absent counter starts at zero.
	Increment(key string) int64

	// Forget evicts key from the cache.
	Forget(key string)
}
