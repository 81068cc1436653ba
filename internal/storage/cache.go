package storage

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTTL is how long cached entries stay fresh.
const DefaultTTL = 24 * time.Hour

// CacheEntry is the persisted form of a cached value.
type CacheEntry struct {
	Content  string `json:"content"`
	CachedAt int64  `json:"cachedAt"` // unix milliseconds
}

// TTLCache stores strings in a Store under a key prefix and treats entries
// older than the TTL as absent. Expired entries are removed lazily on read;
// corrupt entries read as absent and are left for their owner.
type TTLCache struct {
	store  Store
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewTTLCache creates a cache over store.
func NewTTLCache(store Store, prefix string, ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache{store: store, prefix: prefix, ttl: ttl, now: time.Now}
}

// WithClock replaces the cache's clock. Intended for tests.
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.now = now
	return c
}

// IsExpired reports whether entry is older than the TTL.
func (c *TTLCache) IsExpired(entry CacheEntry) bool {
	cachedAt := time.UnixMilli(entry.CachedAt)
	return c.now().Sub(cachedAt) > c.ttl
}

// Get returns a fresh value for key. Storage failures read as a miss.
func (c *TTLCache) Get(ctx context.Context, key string) (string, bool) {
	data, ok, err := c.store.Get(ctx, c.prefix+key)
	if err != nil || !ok {
		return "", false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.CachedAt == 0 {
		return "", false
	}

	if c.IsExpired(entry) {
		_ = c.store.Delete(ctx, c.prefix+key)
		return "", false
	}
	return entry.Content, true
}

// Set stores value for key stamped with the current time.
func (c *TTLCache) Set(ctx context.Context, key, value string) error {
	data, err := json.Marshal(CacheEntry{Content: value, CachedAt: c.now().UnixMilli()})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.prefix+key, data)
}
