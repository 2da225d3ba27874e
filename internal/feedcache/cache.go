// Package feedcache holds fetched feed bodies keyed by feed URL for a fixed time window.
//
// The cache never performs network I/O. Callers check [Cache.Get], fetch on a miss and then
// [Cache.Put] the body. Entries past their expiry are dropped lazily on the next read.
package feedcache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a fetched feed body is served from memory.
const DefaultTTL = time.Hour

// Entry is a cached feed body.
type Entry struct {
	FeedURL   string
	Content   string
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Cache is a TTL map of feed URL to feed body, safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache whose entries live for ttl ([DefaultTTL] when ttl <= 0).
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeURL(feedURL string) string {
	return strings.TrimSpace(feedURL)
}

// Get returns the cached body for feedURL. Expired entries are evicted and reported as a miss.
func (c *Cache) Get(feedURL string) (string, bool) {
	key := normalizeURL(feedURL)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if !c.now().Before(entry.ExpiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return entry.Content, true
}

// Put stores content for feedURL, replacing any previous entry.
func (c *Cache) Put(feedURL, content string) {
	key := normalizeURL(feedURL)
	if key == "" {
		return
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		FeedURL:   key,
		Content:   content,
		FetchedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
}

// Invalidate drops the entry for feedURL.
func (c *Cache) Invalidate(feedURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, normalizeURL(feedURL))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the cache-wide entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
