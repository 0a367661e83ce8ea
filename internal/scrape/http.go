package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/cache"
	"github.com/ppiankov/deepresearch/internal/extract"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/util"
	"github.com/ppiankov/deepresearch/internal/worker"
)

// fetchSleepFunc is the sleep function used for retry backoff (replaceable in tests)
var fetchSleepFunc = time.Sleep

const (
	maxRedirects = 3
	// requests per second to a host after it answered 429
	throttledRate = 0.5
)

// HTTPScraper fetches pages directly and extracts their main text
type HTTPScraper struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache
	pool       *worker.Pool
	logger     *zap.Logger
}

// NewHTTPScraper creates a scraper from cfg. c may be nil.
func NewHTTPScraper(cfg model.ScrapeConfig, c cache.Cache, logger *zap.Logger) *HTTPScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.Nop{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = model.DefaultConfig().Scrape.UserAgent
	}

	transport := util.NewTransport(util.ProxySettings{
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	}, cfg.InsecureTLS)

	s := &HTTPScraper{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		maxRetries: cfg.MaxRetries,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cache:      c,
		pool:       worker.NewPool(cfg.Workers),
		logger:     logger,
	}
	if cfg.RespectRobots {
		s.robots = util.NewRobotsChecker(userAgent, 10*time.Second, logger)
	}
	return s
}

// Name returns the provider name
func (s *HTTPScraper) Name() string { return "http" }

type pageJob struct {
	scraper *HTTPScraper
	url     string
	opts    model.ScrapeOptions
}

type pageResult struct {
	page model.ScrapedPage
}

func (r *pageResult) GetError() error {
	if r.page.Error != "" {
		return errors.New(r.page.Error)
	}
	return nil
}

func (j *pageJob) Execute(ctx context.Context) worker.Result {
	return &pageResult{page: j.scraper.scrape(ctx, j.url, j.opts)}
}

// BatchScrape fetches urls on the worker pool and returns one entry per URL, in input order
func (s *HTTPScraper) BatchScrape(ctx context.Context, urls []string, opts model.ScrapeOptions) ([]model.ScrapedPage, error) {
	jobs := make([]worker.Job, len(urls))
	for i, u := range urls {
		jobs[i] = &pageJob{scraper: s, url: u, opts: opts}
	}

	results := s.pool.Run(ctx, jobs)

	pages := make([]model.ScrapedPage, 0, len(results))
	for i, r := range results {
		if r == nil {
			pages = append(pages, model.ScrapedPage{URL: urls[i], Error: "not fetched: batch cancelled"})
			continue
		}
		pages = append(pages, r.(*pageResult).page)
	}

	if err := ctx.Err(); err != nil {
		return pages, &model.ProviderError{Provider: s.Name(), Op: "batch scrape", Err: err}
	}
	return pages, nil
}

func (s *HTTPScraper) scrape(ctx context.Context, rawURL string, opts model.ScrapeOptions) model.ScrapedPage {
	key := cache.CacheKey("scrape", fmt.Sprintf("%t|%s", opts.OnlyMainContent, rawURL))

	var cached model.ScrapedPage
	if cache.GetJSON(s.cache, key, &cached) {
		return cached
	}

	var crawlDelay time.Duration
	if s.robots != nil {
		allowed, delay, err := s.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return model.ScrapedPage{URL: rawURL, Error: err.Error()}
		}
		if !allowed {
			s.logger.Debug("robots.txt disallows", zap.String("url", rawURL))
			return model.ScrapedPage{URL: rawURL, StatusCode: http.StatusForbidden, Error: "disallowed by robots.txt"}
		}
		crawlDelay = delay
	}

	if err := s.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return model.ScrapedPage{URL: rawURL, Error: fmt.Sprintf("rate limit: %v", err)}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.Timeout)*time.Millisecond)
		defer cancel()
	}

	page := s.fetchWithRetry(ctx, rawURL, opts)
	if page.OK() {
		_ = cache.SetJSON(s.cache, key, page, 0)
	}
	return page
}

func (s *HTTPScraper) fetchWithRetry(ctx context.Context, rawURL string, opts model.ScrapeOptions) model.ScrapedPage {
	var page model.ScrapedPage
	for attempt := 0; ; attempt++ {
		var retry bool
		page, retry = s.fetch(ctx, rawURL, opts)
		if page.StatusCode == http.StatusTooManyRequests {
			s.throttle(rawURL)
		}
		if !retry || attempt >= s.maxRetries || ctx.Err() != nil {
			return page
		}
		s.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Int("status", page.StatusCode),
			zap.String("error", page.Error),
		)
		fetchSleepFunc(time.Duration(attempt+1) * 500 * time.Millisecond)
	}
}

// throttle slows every later request to a host that answered 429
func (s *HTTPScraper) throttle(rawURL string) {
	host, err := worker.HostOf(rawURL)
	if err != nil {
		return
	}
	s.logger.Debug("throttling host", zap.String("host", host), zap.Float64("rps", throttledRate))
	s.limiter.SetRate(host, throttledRate, 1)
}

// fetch performs one GET. The bool reports whether the failure is transient.
func (s *HTTPScraper) fetch(ctx context.Context, rawURL string, opts model.ScrapeOptions) (model.ScrapedPage, bool) {
	page := model.ScrapedPage{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		page.Error = fmt.Sprintf("create request: %v", err)
		return page, false
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		page.Error = fmt.Sprintf("fetch: %v", err)
		return page, true
	}
	defer func() { _ = resp.Body.Close() }()

	page.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		page.Error = fmt.Sprintf("unexpected status: %s", resp.Status)
		return page, resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		page.Error = fmt.Sprintf("read body: %v", err)
		return page, true
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		extracted, err := extract.MainText(string(body), opts.OnlyMainContent)
		if err != nil {
			page.Error = fmt.Sprintf("extract: %v", err)
			return page, false
		}
		page.Title = extracted.Title
		page.Markdown = extracted.Markdown
	case strings.HasPrefix(mediaType, "text/"):
		page.Markdown = strings.TrimSpace(string(body))
	default:
		page.Error = fmt.Sprintf("unsupported content type %q", mediaType)
	}
	return page, false
}
