// Package dimension implements the natural-key -> surrogate-key caches
// backing each star-schema dimension. Every cache is consumer-goroutine
// owned only, so none of them need internal locking (spec.md §4.2, §9).
package dimension

import "context"

// Cache maps a dimension's natural key to its generated surrogate key,
// inserting lazily on first reference and never evicting or reassigning
// an entry once created (spec.md invariant 5).
type Cache[K comparable] struct {
	keys map[K]int64
}

// NewCache builds an empty cache. Warm with Seed for dimensions that
// already have rows in the sink at startup.
func NewCache[K comparable]() *Cache[K] {
	return &Cache[K]{keys: make(map[K]int64)}
}

// Seed preloads natural-key -> surrogate-key pairs discovered at startup
// (spec.md §4.2: "Warmed at startup by scanning each dimension table for
// existing rows").
func (c *Cache[K]) Seed(pairs map[K]int64) {
	for k, v := range pairs {
		c.keys[k] = v
	}
}

// GetOrCreate returns the cached surrogate key for natural key k, or
// invokes insert to create and cache one on first reference.
func (c *Cache[K]) GetOrCreate(_ context.Context, k K, insert func() (int64, error)) (int64, error) {
	if key, ok := c.keys[k]; ok {
		return key, nil
	}

	key, err := insert()
	if err != nil {
		return 0, err
	}
	c.keys[k] = key
	return key, nil
}

// Len reports how many natural keys are currently cached.
func (c *Cache[K]) Len() int {
	return len(c.keys)
}
