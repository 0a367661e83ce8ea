package search

import (
	"context"

	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/worker"
)

// RateLimited waits for limiter clearance, keyed by provider name, before each search
type RateLimited struct {
	next    Searcher
	limiter *worker.Limiter
}

// NewRateLimited wraps next with a limiter
func NewRateLimited(next Searcher, limiter *worker.Limiter) *RateLimited {
	return &RateLimited{next: next, limiter: limiter}
}

// Name returns the wrapped provider name
func (r *RateLimited) Name() string { return r.next.Name() }

// Search waits for a token then delegates
func (r *RateLimited) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	if err := r.limiter.WaitKey(ctx, r.next.Name()); err != nil {
		return nil, &model.ProviderError{Provider: r.next.Name(), Op: "rate limit", Err: err}
	}
	return r.next.Search(ctx, query, maxResults)
}
