// Package cache provides a small TTL cache with explicit construction
// and teardown. Services receive an instance through their constructor
// instead of sharing a package-level map.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	expiry time.Time
}

// TTL is a generic key/value cache where every entry expires after a
// fixed duration. Safe for concurrent use.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewTTL creates a cache whose entries live for ttl. A janitor
// goroutine evicts expired entries every cleanup interval; call Stop
// when the cache is no longer needed.
func NewTTL[K comparable, V any](ttl, cleanup time.Duration) *TTL[K, V] {
	c := &TTL[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		done:    make(chan struct{}),
		now:     time.Now,
	}
	if cleanup > 0 {
		go c.janitor(cleanup)
	}
	return c
}

func (c *TTL[K, V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *TTL[K, V]) evictExpired() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Get returns the cached value and whether it is present and fresh.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiry) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with a fresh expiry.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiry: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes a key.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of stored entries, including not-yet-evicted
// expired ones.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the janitor goroutine. Idempotent.
func (c *TTL[K, V]) Stop() {
	c.once.Do(func() { close(c.done) })
}
