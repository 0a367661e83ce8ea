package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/model"
)

const defaultTavilyURL = "https://api.tavily.com"

// TavilySearcher queries the Tavily search API
type TavilySearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

type tavilyRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewTavily creates a Tavily searcher
func NewTavily(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) (*TavilySearcher, error) {
	if apiKey == "" {
		return nil, &model.ConfigurationError{Field: "search.api_key", Reason: "tavily requires an API key (TAVILY_API_KEY)"}
	}
	if baseURL == "" {
		baseURL = defaultTavilyURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TavilySearcher{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Name returns the provider name
func (s *TavilySearcher) Name() string { return "tavily" }

// Search runs a basic-depth Tavily search
func (s *TavilySearcher) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	payload, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  clampResults(maxResults),
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := do(ctx, s.client, s.Name(), func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &model.ProviderError{Provider: s.Name(), Op: "search", Err: fmt.Errorf("decode response: %w", err)}
	}

	results := make([]model.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, model.SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}

	s.logger.Debug("tavily search", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}
