package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/deepresearch/internal/model"
)

const (
	defaultDuckDuckGoURL = "https://lite.duckduckgo.com/lite/"
	duckDuckGoUserAgent  = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	duckDuckGoRegion     = "wt-wt"
)

// DuckDuckGoSearcher scrapes the DuckDuckGo lite results page. It needs no API key.
type DuckDuckGoSearcher struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewDuckDuckGo creates a DuckDuckGo searcher
func NewDuckDuckGo(endpoint string, timeout time.Duration, logger *zap.Logger) *DuckDuckGoSearcher {
	if endpoint == "" {
		endpoint = defaultDuckDuckGoURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuckDuckGoSearcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Name returns the provider name
func (s *DuckDuckGoSearcher) Name() string { return "duckduckgo" }

// Search posts the query to the lite endpoint and parses the result table
func (s *DuckDuckGoSearcher) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", duckDuckGoRegion)
	encoded := form.Encode()

	resp, err := do(ctx, s.client, s.Name(), func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", duckDuckGoUserAgent)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, &model.ProviderError{Provider: s.Name(), Op: "search", Err: fmt.Errorf("parse results page: %w", err)}
	}

	results := parseLiteResults(doc, clampResults(maxResults))
	s.logger.Debug("duckduckgo search", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// parseLiteResults walks the lite page in document order. Each result-link
// anchor opens a result; the next result-snippet cell fills its snippet.
func parseLiteResults(doc *html.Node, max int) []model.SearchResult {
	results := make([]model.SearchResult, 0, max)
	pendingSnippet := false

	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				if len(results) == max {
					return false
				}
				href := resolveResultURL(attr(n, "href"))
				if href == "" {
					pendingSnippet = false
					return true
				}
				results = append(results, model.SearchResult{
					Title: strings.TrimSpace(textOf(n)),
					URL:   href,
				})
				pendingSnippet = true
				return true
			case n.Data == "td" && hasClass(n, "result-snippet"):
				if pendingSnippet {
					results[len(results)-1].Snippet = strings.Join(strings.Fields(textOf(n)), " ")
					pendingSnippet = false
				}
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)
	return results
}

// resolveResultURL unwraps DuckDuckGo redirect links and drops ad links
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		if strings.HasPrefix(u.Path, "/y.js") {
			return ""
		}
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
