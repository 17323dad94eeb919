// Package infra provides the shared plumbing under every fetcher: the
// result cache, the per-source rate limiter, the HTTP client, and the
// tunables that configuration loading applies to all three.
package infra

import (
	"context"
	"sync"
	"time"
)

// Tunables applied once from configuration loading, before any provider
// is constructed.
var (
	tunablesMu      sync.RWMutex
	defaultCacheTTL = 5 * time.Minute
	fetchLimit      = 4
)

// SetCacheTTL overrides the default time fetch results stay cached.
func SetCacheTTL(d time.Duration) {
	if d <= 0 {
		return
	}
	tunablesMu.Lock()
	defaultCacheTTL = d
	tunablesMu.Unlock()
}

// CacheTTL returns the configured fetch result cache TTL.
func CacheTTL() time.Duration {
	tunablesMu.RLock()
	defer tunablesMu.RUnlock()
	return defaultCacheTTL
}

// SetFetchLimit overrides how many series a provider may fetch from one
// source concurrently.
func SetFetchLimit(n int) {
	if n <= 0 {
		return
	}
	tunablesMu.Lock()
	fetchLimit = n
	tunablesMu.Unlock()
}

// FetchLimit returns the configured concurrent fetch bound.
func FetchLimit() int {
	tunablesMu.RLock()
	defer tunablesMu.RUnlock()
	return fetchLimit
}

// Cache is a thread-safe in-memory cache for fetch results. Entries
// expire after the TTL fixed at construction; expired entries are
// overwritten in place on the next Set for the same key.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// NewCache creates a cache with the given TTL. A non-positive TTL uses
// the configured default.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = CacheTTL()
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the live value for key, or false when absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key for the cache's TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// RateLimiter is a token bucket allowing burst requests per interval.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   int
	burst    int
	interval time.Duration
	last     time.Time
}

// NewRateLimiter creates a limiter that refills burst tokens every
// interval, starting full.
func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   burst,
		burst:    burst,
		interval: interval,
		last:     time.Now(),
	}
}

// Wait consumes one token, blocking until one is available or the
// context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		wait := rl.interval - time.Since(rl.last)
		rl.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill credits tokens for whole elapsed intervals. Callers hold mu.
func (rl *RateLimiter) refill() {
	elapsed := time.Since(rl.last)
	if elapsed < rl.interval {
		return
	}
	periods := int(elapsed / rl.interval)
	rl.tokens = min(rl.tokens+periods, rl.burst)
	rl.last = rl.last.Add(time.Duration(periods) * rl.interval)
}
