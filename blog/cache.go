// blog/cache.go
package blog

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// FeedCache holds fully rendered home-feed pages keyed by page number.
// Entries live until the TTL passes or an operator clears the cache; writes
// to the post collection do not invalidate anything, so readers may see a
// page up to one TTL stale.
type FeedCache struct {
	lru *expirable.LRU[string, []byte]
}

const feedCacheSize = 128

func NewFeedCache(ttl time.Duration) *FeedCache {
	return &FeedCache{lru: expirable.NewLRU[string, []byte](feedCacheSize, nil, ttl)}
}

func (c *FeedCache) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *FeedCache) Set(key string, body []byte) {
	c.lru.Add(key, body)
}

// Clear drops every cached page. Exposed to operators through the admin
// surface.
func (c *FeedCache) Clear() {
	c.lru.Purge()
}
