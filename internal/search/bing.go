package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/model"
)

const defaultBingURL = "https://api.bing.microsoft.com/v7.0/search"

// BingSearcher queries the Bing Web Search v7 API
type BingSearcher struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

// NewBing creates a Bing searcher
func NewBing(apiKey, endpoint string, timeout time.Duration, logger *zap.Logger) (*BingSearcher, error) {
	if apiKey == "" {
		return nil, &model.ConfigurationError{Field: "search.api_key", Reason: "bing requires an API key (BING_API_KEY)"}
	}
	if endpoint == "" {
		endpoint = defaultBingURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BingSearcher{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

// Name returns the provider name
func (s *BingSearcher) Name() string { return "bing" }

// Search returns web page results, skipping video hosting links
func (s *BingSearcher) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("responseFilter", "Webpages")
	params.Set("q", query)
	params.Set("count", strconv.Itoa(clampResults(maxResults)))
	params.Set("setLang", "en-GB")
	params.Set("textDecorations", "false")
	params.Set("textFormat", "HTML")
	params.Set("safeSearch", "Strict")

	resp, err := do(ctx, s.client, s.Name(), func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &model.ProviderError{Provider: s.Name(), Op: "search", Err: fmt.Errorf("decode response: %w", err)}
	}

	results := make([]model.SearchResult, 0, len(decoded.WebPages.Value))
	for _, v := range decoded.WebPages.Value {
		if v.URL == "" || strings.Contains(v.URL, "youtube.com") {
			continue
		}
		results = append(results, model.SearchResult{Title: v.Name, URL: v.URL, Snippet: v.Snippet})
	}

	s.logger.Debug("bing search", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}
