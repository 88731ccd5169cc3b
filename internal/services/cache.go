package services

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// CacheKey derives a stable key from the content that produced a
// result, so identical inputs across sessions hit the same entry.
func CacheKey(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ResultCache is a read-through cache for service results keyed by
// content hash. Concurrent computes for the same key may race, but the
// first completed insert wins and later ones are discarded, so readers
// always observe one consistent value per key.
type ResultCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewResultCache returns an empty cache.
func NewResultCache[V any]() *ResultCache[V] {
	return &ResultCache[V]{entries: make(map[string]V)}
}

// Get returns the cached value for key, if present.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// GetOrCompute returns the cached value or runs compute and stores its
// result. Errors are not cached; the next caller retries.
func (c *ResultCache[V]) GetOrCompute(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, nil
	}
	c.entries[key] = v
	return v, nil
}

// Len reports the number of cached entries.
func (c *ResultCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
