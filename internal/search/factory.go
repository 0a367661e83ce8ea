package search

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/cache"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/worker"
)

// New builds the configured searcher, rate limited and, when c is non-nil and a TTL is set, cached
func New(cfg model.SearchConfig, c cache.Cache, logger *zap.Logger) (Searcher, error) {
	var (
		base Searcher
		err  error
	)

	switch strings.ToLower(cfg.Provider) {
	case "", "tavily":
		base, err = NewTavily(cfg.APIKey, cfg.BaseURL, cfg.Timeout, logger)
	case "bing":
		base, err = NewBing(cfg.APIKey, cfg.BaseURL, cfg.Timeout, logger)
	case "duckduckgo", "ddg":
		base = NewDuckDuckGo(cfg.BaseURL, cfg.Timeout, logger)
	default:
		return nil, &model.ConfigurationError{
			Field:  "search.provider",
			Reason: fmt.Sprintf("unknown provider %q (supported: tavily, bing, duckduckgo)", cfg.Provider),
		}
	}
	if err != nil {
		return nil, err
	}

	var s Searcher = NewRateLimited(base, worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst))
	if c != nil && cfg.CacheTTL > 0 {
		s = NewCached(s, c, cfg.CacheTTL)
	}
	return s, nil
}
