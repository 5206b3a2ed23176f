package idempotency

import (
	"sync"
	"time"
)

// localCache is the bounded in-process fallback used when the durable store is
// unreachable. It only has to cover within-process redelivery during an
// outage, so a small capacity with TTL eviction is enough.
type localCache struct {
	mu         sync.Mutex
	entries    map[string]time.Time // eventID -> expiry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

func newLocalCache(maxEntries int, ttl time.Duration) *localCache {
	return &localCache{
		entries:    make(map[string]time.Time),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (c *localCache) Contains(eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, ok := c.entries[eventID]
	if !ok {
		return false
	}
	if c.now().After(expiry) {
		delete(c.entries, eventID)
		return false
	}
	return true
}

func (c *localCache) Add(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[eventID] = c.now().Add(c.ttl)
}

func (c *localCache) Remove(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, eventID)
}

func (c *localCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops expired entries first. If the cache is still full the
// entry closest to expiry goes, keeping the hottest keys.
func (c *localCache) evictLocked() {
	now := c.now()
	for id, expiry := range c.entries {
		if now.After(expiry) {
			delete(c.entries, id)
		}
	}

	if len(c.entries) < c.maxEntries {
		return
	}

	var oldestID string
	var oldestExpiry time.Time
	for id, expiry := range c.entries {
		if oldestID == "" || expiry.Before(oldestExpiry) {
			oldestID = id
			oldestExpiry = expiry
		}
	}
	delete(c.entries, oldestID)
}
