// Package cache provides a process-wide in-memory key/value cache with
// optional per-entry expiry.
//
// The cache memoizes embeddings and full chat responses between requests.
// Eviction is lazy: an expired entry stays in memory until the next Get for
// its key. There is no size bound; the intended deployment is a short-lived
// request-serving instance, so unbounded growth is an accepted limitation.
package cache

import (
	"sync"
	"time"
)

// entry is a stored value with an optional expiry deadline.
// A zero expiresAt means the entry never expires.
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a string-keyed value cache safe for concurrent use.
// Keys are opaque strings built by callers as "<namespace>_<discriminator>",
// e.g. "embedding_<text>" or "chat_<userID>_<message>".
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time // injectable clock for tests
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Set stores value under key. A positive ttl sets the expiry to now+ttl;
// ttl <= 0 stores the value without expiry. An existing entry is replaced
// whole, so concurrent writers race benignly (last write wins).
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Get returns the value stored under key and whether it was present and
// unexpired. An expired entry encountered here is deleted as a side effect.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

// Delete removes the entry for key, expired or not.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of stored entries, including any expired entries
// that have not yet been lazily evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
