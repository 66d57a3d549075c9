// Package cache provides a per-key time-boxed memoization store for fetched
// results. Expired entries are kept until overwritten or invalidated so
// callers can fall back to stale data when a refetch fails.
package cache

import (
	"sync"
	"time"

	"grid-ops-service/internal/domain"
)

// Default durations per data class. Callers pick the one matching their
// domain's rate of change.
const (
	DefaultTTL = 5 * time.Minute
	// Outage feeds churn quickly.
	OutageTTL = 2 * time.Minute
	// Node site reference data barely changes.
	SiteTTL = 30 * time.Minute
)

type entry struct {
	value     domain.Envelope
	expiresAt time.Time
}

// TimedCache is a thread-safe key/value store with per-entry expiry. Reads of
// expired entries still succeed; freshness-sensitive callers check IsValid
// first. Concurrent writes to the same key are last-write-wins.
type TimedCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New constructs an empty TimedCache.
func New() *TimedCache {
	return &TimedCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewWithClock constructs a TimedCache with a fixed clock for tests.
func NewWithClock(now func() time.Time) *TimedCache {
	c := New()
	if now != nil {
		c.now = now
	}
	return c
}

// IsValid reports whether an entry exists for key and has not expired.
func (c *TimedCache) IsValid(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && c.now().Before(e.expiresAt)
}

// Get returns the cached value regardless of validity. The boolean reports
// whether any entry, fresh or stale, exists.
func (c *TimedCache) Get(key string) (domain.Envelope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e.value, ok
}

// Set stores the value and stamps its expiry at now + ttl, unconditionally
// replacing any prior entry.
func (c *TimedCache) Set(key string, value domain.Envelope, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Invalidate removes a single entry so the next access refetches.
func (c *TimedCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear removes every entry.
func (c *TimedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Len reports the number of stored entries, fresh or stale.
func (c *TimedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
