package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/model"
)

const defaultFirecrawlURL = "https://api.firecrawl.dev"

// Job polling settings (replaceable in tests). A job may run for the per-page
// timeout times the batch size, bounded by firecrawlMinWait and firecrawlMaxWait.
var (
	firecrawlPollInterval = 2 * time.Second
	firecrawlMinWait      = time.Minute
	firecrawlMaxWait      = 15 * time.Minute
)

// FirecrawlScraper delegates to the Firecrawl batch scrape API
type FirecrawlScraper struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type firecrawlBatchRequest struct {
	URLs            []string `json:"urls"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int      `json:"timeout,omitempty"`
}

type firecrawlSubmitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

type firecrawlStatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Data   []struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			SourceURL  string `json:"sourceURL"`
			StatusCode int    `json:"statusCode"`
			Error      string `json:"error"`
		} `json:"metadata"`
	} `json:"data"`
	Next string `json:"next"`
}

// NewFirecrawl creates a Firecrawl scraper
func NewFirecrawl(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) (*FirecrawlScraper, error) {
	if apiKey == "" {
		return nil, &model.ConfigurationError{Field: "scrape.api_key", Reason: "firecrawl requires an API key (FIRECRAWL_API_KEY)"}
	}
	if baseURL == "" {
		baseURL = defaultFirecrawlURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirecrawlScraper{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Name returns the provider name
func (f *FirecrawlScraper) Name() string { return "firecrawl" }

// BatchScrape submits a batch job and polls until it completes
func (f *FirecrawlScraper) BatchScrape(ctx context.Context, urls []string, opts model.ScrapeOptions) ([]model.ScrapedPage, error) {
	if len(urls) == 0 {
		return []model.ScrapedPage{}, nil
	}

	var submitted firecrawlSubmitResponse
	err := f.call(ctx, http.MethodPost, f.baseURL+"/v1/batch/scrape", firecrawlBatchRequest{
		URLs:            urls,
		Formats:         opts.Formats,
		OnlyMainContent: opts.OnlyMainContent,
		Timeout:         opts.Timeout,
	}, &submitted)
	if err != nil {
		return nil, &model.ProviderError{Provider: f.Name(), Op: "submit batch", Err: err}
	}
	if !submitted.Success || submitted.ID == "" {
		return nil, &model.ProviderError{Provider: f.Name(), Op: "submit batch", Err: fmt.Errorf("rejected: %s", submitted.Error)}
	}
	f.logger.Debug("firecrawl batch submitted", zap.String("id", submitted.ID), zap.Int("urls", len(urls)))

	wait := jobWait(opts, len(urls))
	pollCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	statusURL := f.baseURL + "/v1/batch/scrape/" + submitted.ID
	for {
		var status firecrawlStatusResponse
		if err := f.call(pollCtx, http.MethodGet, statusURL, nil, &status); err != nil {
			if pollCtx.Err() != nil {
				err = fmt.Errorf("job %s not finished after %s: %w", submitted.ID, wait, pollCtx.Err())
			}
			return nil, &model.ProviderError{Provider: f.Name(), Op: "poll batch", Err: err}
		}

		switch status.Status {
		case "completed":
			return f.collect(ctx, status)
		case "failed", "cancelled":
			return nil, &model.ProviderError{Provider: f.Name(), Op: "poll batch", Err: fmt.Errorf("job %s: %s", status.Status, status.Error)}
		}

		timer := time.NewTimer(firecrawlPollInterval)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			err := fmt.Errorf("job %s still %s after %s: %w", submitted.ID, status.Status, wait, pollCtx.Err())
			return nil, &model.ProviderError{Provider: f.Name(), Op: "poll batch", Err: err}
		case <-timer.C:
		}
	}
}

// jobWait bounds how long a batch job may take
func jobWait(opts model.ScrapeOptions, pages int) time.Duration {
	perPage := time.Duration(opts.Timeout) * time.Millisecond
	if perPage <= 0 {
		perPage = 30 * time.Second
	}
	return min(max(perPage*time.Duration(pages), firecrawlMinWait), firecrawlMaxWait)
}

// collect follows pagination links and flattens the job data into pages
func (f *FirecrawlScraper) collect(ctx context.Context, status firecrawlStatusResponse) ([]model.ScrapedPage, error) {
	var pages []model.ScrapedPage
	for {
		for _, d := range status.Data {
			u := d.Metadata.SourceURL
			if u == "" {
				u = d.Metadata.URL
			}
			pages = append(pages, model.ScrapedPage{
				URL:        u,
				StatusCode: d.Metadata.StatusCode,
				Title:      d.Metadata.Title,
				Markdown:   d.Markdown,
				Error:      d.Metadata.Error,
			})
		}
		if status.Next == "" {
			return pages, nil
		}
		next := status.Next
		status = firecrawlStatusResponse{}
		if err := f.call(ctx, http.MethodGet, next, nil, &status); err != nil {
			return nil, &model.ProviderError{Provider: f.Name(), Op: "fetch batch page", Err: err}
		}
	}
}

func (f *FirecrawlScraper) call(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
