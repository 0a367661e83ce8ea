// Package scrape fetches batches of pages and reduces them to markdown.
package scrape

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/cache"
	"github.com/ppiankov/deepresearch/internal/model"
)

// Scraper fetches a batch of URLs. Per-page failures are reported in the
// returned entries; an error means the batch as a whole could not run.
type Scraper interface {
	Name() string
	BatchScrape(ctx context.Context, urls []string, opts model.ScrapeOptions) ([]model.ScrapedPage, error)
}

// New builds the configured scraper
func New(cfg model.ScrapeConfig, c cache.Cache, logger *zap.Logger) (Scraper, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "http":
		return NewHTTPScraper(cfg, c, logger), nil
	case "firecrawl":
		return NewFirecrawl(cfg.APIKey, cfg.BaseURL, cfg.Timeout, logger)
	default:
		return nil, &model.ConfigurationError{
			Field:  "scrape.provider",
			Reason: fmt.Sprintf("unknown provider %q (supported: http, firecrawl)", cfg.Provider),
		}
	}
}
