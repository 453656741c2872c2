package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruEntry struct {
	value     string
	expiresAt time.Time
}

// LRUCache is the in-process fallback used when no redis is configured.
// Entries expire after the ttl given to Set, capped by maxTTL.
type LRUCache struct {
	lru *expirable.LRU[string, lruEntry]
	now func() time.Time
}

var _ Cache = (*LRUCache)(nil)

func NewLRUCache(size int, maxTTL time.Duration) *LRUCache {
	return &LRUCache{
		lru: expirable.NewLRU[string, lruEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (c *LRUCache) Get(_ context.Context, key string) (string, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return "", false
	}
	if !c.now().Before(entry.expiresAt) {
		c.lru.Remove(key)
		return "", false
	}
	return entry.value, true
}

func (c *LRUCache) Set(_ context.Context, key string, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.lru.Add(key, lruEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	})
}

func (c *LRUCache) Delete(_ context.Context, key string) {
	c.lru.Remove(key)
}

func (c *LRUCache) Ping(context.Context) error {
	return nil
}

func (c *LRUCache) Close() error {
	c.lru.Purge()
	return nil
}
