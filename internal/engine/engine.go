// Package engine runs the recursive research loop: generate sub-queries, search,
// scrape, evaluate, extract learnings and follow the most promising leads deeper.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/extract"
	"github.com/ppiankov/deepresearch/internal/llm"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/progress"
	"github.com/ppiankov/deepresearch/internal/prompts"
	"github.com/ppiankov/deepresearch/internal/tune"
	"github.com/ppiankov/deepresearch/internal/validate"
)

// Searcher finds candidate pages for a search string
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error)
}

// Scraper fetches a batch of pages
type Scraper interface {
	BatchScrape(ctx context.Context, urls []string, opts model.ScrapeOptions) ([]model.ScrapedPage, error)
}

// Generator produces structured LLM output
type Generator interface {
	Generate(ctx context.Context, req llm.Request, out any) error
}

const (
	DefaultDepth           = 2
	DefaultBreadth         = 4
	defaultResultsPerQuery = 4
	sourceTokenBudget      = 25_000
	evaluationTokenBudget  = 1_000
	maxFollowUpsPerQuery   = 3
)

// Config holds the run-shaping settings of an engine
type Config struct {
	// Model is the LLM model identifier passed to every generation call. Required.
	Model string

	AutoTune   bool
	MaxDepth   int
	MaxBreadth int
	TimeBudget time.Duration

	// MaxExpansions caps the number of research iterations one run may open. 0 means unlimited.
	MaxExpansions int

	ResultsPerQuery int
	Domain          string
}

// ConfigFromModel builds an engine config from the research and LLM settings
func ConfigFromModel(r model.ResearchConfig, l model.LLMConfig) Config {
	return Config{
		Model:           l.Model,
		AutoTune:        r.AutoTune,
		MaxDepth:        r.MaxDepth,
		MaxBreadth:      r.MaxBreadth,
		TimeBudget:      r.TimeBudget,
		MaxExpansions:   r.MaxExpansions,
		ResultsPerQuery: r.ResultsPerQuery,
		Domain:          r.Domain,
	}
}

// Engine runs research sessions. It is safe to call Research concurrently:
// every call owns its own memory, progress and tuner.
type Engine struct {
	cfg       Config
	searcher  Searcher
	scraper   Scraper
	generator Generator
	validator validate.ContentValidator
	authority *validate.AuthorityClassifier
	detector  *extract.Detector
	prompts   *prompts.Builder
	logger    *zap.Logger
	now       func() time.Time
	observer  progress.Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithSearcher sets the search backend
func WithSearcher(s Searcher) Option { return func(e *Engine) { e.searcher = s } }

// WithScraper sets the scrape backend
func WithScraper(s Scraper) Option { return func(e *Engine) { e.scraper = s } }

// WithGenerator sets the structured generation backend
func WithGenerator(g Generator) Option { return func(e *Engine) { e.generator = g } }

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithValidator replaces the content classifier. A nil validator gets a fresh
// classifier per run, anchored on the run's current date.
func WithValidator(v validate.ContentValidator) Option { return func(e *Engine) { e.validator = v } }

// WithContradictionRules replaces the built-in contradiction rule families
func WithContradictionRules(rules ...extract.ContradictionRule) Option {
	return func(e *Engine) { e.detector = extract.NewDetector(rules...) }
}

// WithClock replaces time.Now for memory timestamps, the tuner and progress
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithAuthority sets the classifier whose tiers are passed as hints to source evaluation
func WithAuthority(a *validate.AuthorityClassifier) Option {
	return func(e *Engine) { e.authority = a }
}

// WithProgressObserver registers a callback for progress updates
func WithProgressObserver(o progress.Observer) Option { return func(e *Engine) { e.observer = o } }

// New creates an engine. A missing model, collaborator or invalid tuning bound
// is reported as *model.ConfigurationError.
func New(cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		logger:   zap.NewNop(),
		now:      time.Now,
		detector: extract.NewDetector(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cfg.Model == "" {
		return nil, &model.ConfigurationError{Field: "llm.model", Reason: "a model identifier is required (set LLM_MODEL_NAME or --llm-model)"}
	}
	if e.searcher == nil {
		return nil, &model.ConfigurationError{Field: "search", Reason: "no search provider configured"}
	}
	if e.scraper == nil {
		return nil, &model.ConfigurationError{Field: "scrape", Reason: "no scrape provider configured"}
	}
	if e.generator == nil {
		return nil, &model.ConfigurationError{Field: "llm", Reason: "no LLM provider configured"}
	}
	if e.cfg.MaxDepth == 0 {
		e.cfg.MaxDepth = 5
	}
	if e.cfg.MaxBreadth == 0 {
		e.cfg.MaxBreadth = 8
	}
	if e.cfg.ResultsPerQuery <= 0 {
		e.cfg.ResultsPerQuery = defaultResultsPerQuery
	}
	if e.cfg.MaxExpansions < 0 {
		return nil, &model.ConfigurationError{Field: "research.max_expansions", Reason: "must not be negative"}
	}
	if e.cfg.AutoTune {
		if _, err := tune.New(e.cfg.MaxDepth, e.cfg.MaxBreadth, e.cfg.TimeBudget); err != nil {
			return nil, err
		}
	}

	builder, err := prompts.New(e.cfg.Domain)
	if err != nil {
		return nil, err
	}
	builder.SetClock(e.now)
	e.prompts = builder

	if e.authority == nil {
		e.authority = validate.NewAuthorityClassifier(nil)
	}
	return e, nil
}

// Config returns the effective configuration
func (e *Engine) Config() Config { return e.cfg }
