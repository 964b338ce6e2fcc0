package app

import (
	"github.com/example/crmsync/internal/core/linked"
	"github.com/example/crmsync/internal/ports/secondary"
)

// EventCounter counts pending sync events per (aggregate id, entity type),
// deduplicated per event reference: retries of the same event bump the
// counter at most once. Sync chains use the counts to decide when a
// multi-step pass has drained.
type EventCounter struct {
	cache secondary.Cache
}

// NewEventCounter creates an event counter over the shared cache.
func NewEventCounter(cache secondary.Cache) *EventCounter {
	return &EventCounter{cache: cache}
}

// IncrementUnique bumps the counter for (aggregateID, entityType) unless
// eventRef was already counted for that pair. Returns true when the
// counter moved. The seen-marker store is the cache's atomic add, so
// concurrent retries of the same event race to a single winner.
func (c *EventCounter) IncrementUnique(eventRef, aggregateID string, entityType linked.EntityType) bool {
	seenKey := "syncevents:seen:" + aggregateID + ":" + entityType.String() + ":" + eventRef
	if !c.cache.Add(seenKey, true, 0) {
		return false
	}
	c.cache.Increment(counterKey(aggregateID, entityType))
	return true
}

// Count returns the current counter for (aggregateID, entityType), zero
// when absent.
func (c *EventCounter) Count(aggregateID string, entityType linked.EntityType) int64 {
	v, ok := c.cache.Get(counterKey(aggregateID, entityType))
	if !ok {
		return 0
	}
	n, _ := v.(int64)
	return n
}

func counterKey(aggregateID string, entityType linked.EntityType) string {
	return "syncevents:count:" + aggregateID + ":" + entityType.String()
}
