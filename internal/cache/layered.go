package cache

import (
	"time"

	"go.uber.org/multierr"
)

// LayeredCache serves scraped pages and search results from process memory
// when it can and from the disk cache of earlier runs otherwise. Disk hits are
// copied into memory for promoteTTL so a run that revisits a URL stays in memory.
type LayeredCache struct {
	fast       Cache
	slow       Cache
	promoteTTL time.Duration
}

// NewLayeredCache puts fast in front of slow. A zero promoteTTL keeps promoted
// entries for the fast layer's default expiration.
func NewLayeredCache(fast, slow Cache, promoteTTL time.Duration) *LayeredCache {
	return &LayeredCache{fast: fast, slow: slow, promoteTTL: promoteTTL}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.fast.Get(key); found {
		return val, true
	}
	val, found := c.slow.Get(key)
	if !found {
		return nil, false
	}
	_ = c.fast.Set(key, val, c.promoteTTL)
	return val, true
}

// Set writes through to both layers; the fast layer never outlives promoteTTL
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	fastTTL := ttl
	if c.promoteTTL > 0 && (fastTTL <= 0 || fastTTL > c.promoteTTL) {
		fastTTL = c.promoteTTL
	}
	return multierr.Combine(c.fast.Set(key, value, fastTTL), c.slow.Set(key, value, ttl))
}

func (c *LayeredCache) Delete(key string) error {
	return multierr.Combine(c.fast.Delete(key), c.slow.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return multierr.Combine(c.fast.Clear(), c.slow.Clear())
}
