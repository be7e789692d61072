// Package cache provides an in-memory TTL cache for computed analytics
// results. Entries expire lazily: an expired entry is dropped the next
// time Get touches it, or eagerly via Sweep.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is applied when Set receives a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Entry is a cached value with its wall-clock expiry.
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is a thread-safe TTL result cache.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]Entry
	defaultTTL time.Duration
	hits       int64
	misses     int64
}

// New creates a cache with the given default TTL. A non-positive
// defaultTTL falls back to DefaultTTL.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]Entry),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key. Expired entries are removed and
// reported as misses.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.Value, true
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a specific entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries and resets counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	c.hits = 0
	c.misses = 0
}

// Sweep removes every expired entry and returns how many were dropped.
// Callers that want bounded memory without waiting for lazy expiry can
// run this periodically.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
		HitRate: rate,
	}
}

// BuildKey joins key parts with "|" so distinct queries cannot collide.
func BuildKey(parts ...string) string {
	return strings.Join(parts, "|")
}
