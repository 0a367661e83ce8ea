package search

import (
	"context"
	"strconv"
	"time"

	"github.com/ppiankov/deepresearch/internal/cache"
	"github.com/ppiankov/deepresearch/internal/model"
)

// Cached memoizes successful searches. Errors are never cached.
type Cached struct {
	next  Searcher
	cache cache.Cache
	ttl   time.Duration
}

// NewCached wraps next with a result cache
func NewCached(next Searcher, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

// Name returns the wrapped provider name
func (c *Cached) Name() string { return c.next.Name() }

// Search returns a cached result when one exists
func (c *Cached) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	key := cache.CacheKey("search:"+c.next.Name(), strconv.Itoa(maxResults)+"|"+query)

	var hit []model.SearchResult
	if cache.GetJSON(c.cache, key, &hit) {
		return hit, nil
	}

	results, err := c.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(c.cache, key, results, c.ttl)
	return results, nil
}
