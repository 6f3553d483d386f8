package service

import (
	"sync"
	"time"
)

type validationEntry struct {
	valid    bool
	cachedAt time.Time
}

// ValidationCache remembers credential probe results for a fixed TTL.
// Keys are hashes of the candidate credential, never the credential itself.
type ValidationCache struct {
	mu      sync.RWMutex
	entries map[string]validationEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewValidationCache(ttl time.Duration) *ValidationCache {
	return &ValidationCache{
		entries: make(map[string]validationEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *ValidationCache) Get(key string) (valid bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[key]
	if !found || c.now().Sub(e.cachedAt) > c.ttl {
		return false, false
	}
	return e.valid, true
}

func (c *ValidationCache) Set(key string, valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = validationEntry{valid: valid, cachedAt: c.now()}
}

// Prune drops expired entries and returns how many were removed.
func (c *ValidationCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.cachedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *ValidationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
