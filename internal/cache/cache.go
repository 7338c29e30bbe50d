package cache

import (
	"sync"
	"time"
)

// DefaultTTL matches the refresh interval of most external feeds.
// Daily items (quotes) pass their own ttl at the call site.
const DefaultTTL = 5 * time.Minute

type entry struct {
	payload    any
	recordedAt time.Time
	ttl        time.Duration
}

// Cache is a keyed response cache with per-entry TTL. Stale entries are
// never swept; they are ignored on read and overwritten on the next Set.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	defaultTTL time.Duration
	now        func() time.Time
}

func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the cached payload for key, or false when the key was never
// written or its entry has gone stale. A miss never removes anything.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.recordedAt) >= e.ttl {
		return nil, false
	}
	return e.payload, true
}

// Set stores payload under key with the default TTL, overwriting
// whatever was there.
func (c *Cache) Set(key string, payload any) {
	c.SetTTL(key, payload, c.defaultTTL)
}

// SetTTL stores payload under key with an explicit TTL.
func (c *Cache) SetTTL(key string, payload any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		payload:    payload,
		recordedAt: c.now(),
		ttl:        ttl,
	}
}

// Valid reports whether key holds a fresh entry.
func (c *Cache) Valid(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && c.now().Sub(e.recordedAt) < e.ttl
}

// Len counts all stored entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
