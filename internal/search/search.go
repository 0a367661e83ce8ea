// Package search turns a query string into a ranked list of web results.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/deepresearch/internal/model"
)

// Searcher runs one web search
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error)
}

const (
	maxRateLimitRetries = 3
	maxErrorBody        = 512
)

var searchSleepFunc = time.Sleep

var errRateLimited = errors.New("rate limited")

// do sends the request built by newReq, retrying on 429 with backoff.
// The caller owns the returned body.
func do(ctx context.Context, client *http.Client, provider string, newReq func(context.Context) (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := newReq(ctx)
		if err != nil {
			return nil, &model.ProviderError{Provider: provider, Op: "search", Err: fmt.Errorf("create request: %w", err)}
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, &model.ProviderError{Provider: provider, Op: "search", Err: fmt.Errorf("send request: %w", err)}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfter(resp.Header.Get("Retry-After"), attempt)
			_ = resp.Body.Close()
			if attempt >= maxRateLimitRetries {
				return nil, &model.ProviderError{Provider: provider, Op: "search", Err: errRateLimited}
			}
			if err := ctx.Err(); err != nil {
				return nil, &model.ProviderError{Provider: provider, Op: "search", Err: err}
			}
			searchSleepFunc(delay)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			_ = resp.Body.Close()
			return nil, &model.ProviderError{
				Provider: provider,
				Op:       "search",
				Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			}
		}
		return resp, nil
	}
}

func retryAfter(header string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Duration(1<<attempt) * time.Second
}

func clampResults(n int) int {
	if n <= 0 {
		return 4
	}
	return n
}
