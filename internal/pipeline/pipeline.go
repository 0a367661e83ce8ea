// Package pipeline wires the configured providers into the research engine and
// runs complete sessions: research, reports, session files and history.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/cache"
	"github.com/ppiankov/deepresearch/internal/engine"
	"github.com/ppiankov/deepresearch/internal/llm"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/prompts"
	"github.com/ppiankov/deepresearch/internal/report"
	"github.com/ppiankov/deepresearch/internal/scrape"
	"github.com/ppiankov/deepresearch/internal/search"
	"github.com/ppiankov/deepresearch/internal/store"
	"github.com/ppiankov/deepresearch/internal/validate"
)

// Pipeline orchestrates complete research sessions
type Pipeline struct {
	cfg     model.Config
	deps    engine.Dependencies
	request engine.Request
	reports *report.Writer
	history *store.Store // nil if disabled
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithEngineOptions passes extra options to every engine the pipeline builds
func WithEngineOptions(opts ...engine.Option) Option {
	return func(p *Pipeline) { p.deps.Options = append(p.deps.Options, opts...) }
}

// WithHistory records every finished session in s
func WithHistory(s *store.Store) Option {
	return func(p *Pipeline) { p.history = s }
}

// WithClock replaces time.Now for session directory names
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline builds the cache, search, scrape and LLM providers from cfg and
// opens the history store when enabled
func NewPipeline(cfg model.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cache.New(cfg.Cache)
	searcher, err := search.New(cfg.Search, c, logger)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}
	scraper, err := scrape.New(cfg.Scrape, c, logger)
	if err != nil {
		return nil, fmt.Errorf("scrape provider: %w", err)
	}
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, logger))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	deps := engine.Dependencies{
		Searcher:  searcher,
		Scraper:   scraper,
		Generator: provider,
		Logger:    logger,
	}

	if cfg.Store.Enabled {
		history, err := store.Open(cfg.Store.Path)
		if err != nil {
			logger.Warn("history disabled", zap.String("path", cfg.Store.Path), zap.Error(err))
		} else {
			opts = append([]Option{WithHistory(history)}, opts...)
		}
	}
	return New(cfg, deps, opts...)
}

// New creates a pipeline around ready-made collaborators. The engine
// configuration is validated up front.
func New(cfg model.Config, deps engine.Dependencies, opts ...Option) (*Pipeline, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	p := &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		now:    time.Now,
		request: engine.Request{
			Breadth: cfg.Research.Breadth,
			Depth:   cfg.Research.Depth,
			Config:  engine.ConfigFromModel(cfg.Research, cfg.LLM),
		},
	}
	p.deps.Options = append([]engine.Option{
		engine.WithAuthority(validate.NewAuthorityClassifier(&cfg.Authority)),
	}, p.deps.Options...)
	for _, opt := range opts {
		opt(p)
	}

	if _, err := engine.New(p.request.Config, p.engineOptions()...); err != nil {
		p.Close()
		return nil, err
	}

	builder, err := prompts.New(cfg.Research.Domain)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.reports = report.NewWriter(deps.Generator, cfg.LLM.Model, builder, p.logger)
	return p, nil
}

func (p *Pipeline) engineOptions() []engine.Option {
	return append([]engine.Option{
		engine.WithSearcher(p.deps.Searcher),
		engine.WithScraper(p.deps.Scraper),
		engine.WithGenerator(p.deps.Generator),
		engine.WithLogger(p.logger),
	}, p.deps.Options...)
}

// Session is the outcome of one research session
type Session struct {
	Result  model.Result
	Reports report.Reports
	Dir     string // empty when reports were not written
}

// Run researches query with explicit breadth and depth; zero values fall back
// to the configured ones
func (p *Pipeline) Run(ctx context.Context, query string, breadth, depth int) (*Session, error) {
	req := p.request
	if breadth > 0 {
		req.Breadth = breadth
	}
	if depth > 0 {
		req.Depth = depth
	}

	started := p.now()
	p.logger.Info("research session started",
		zap.String("query", query),
		zap.Bool("auto_tune", req.Config.AutoTune),
		zap.Int("breadth", req.Breadth),
		zap.Int("depth", req.Depth),
	)

	result, err := engine.DeepResearch(ctx, query, req, p.deps)
	if err != nil {
		if p.cfg.Output.WriteReports {
			p.writeErrorLog(query, req, err, started)
		}
		return &Session{Result: result}, fmt.Errorf("research: %w", err)
	}

	session := &Session{Result: result, Reports: p.buildReports(ctx, result, started, req.Config.AutoTune)}

	var errs error
	if p.cfg.Output.WriteReports {
		dir, err := report.CreateSessionDir(p.cfg.Output.Dir, started, result.RunID)
		if err == nil {
			err = report.WriteSession(dir, result, session.Reports)
			session.Dir = dir
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write session: %w", err))
		}
	}
	if p.history != nil {
		if err := p.history.Save(ctx, result); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("save history: %w", err))
		}
	}

	p.logger.Info("research session completed",
		zap.String("run_id", result.RunID),
		zap.Int("learnings", len(result.Learnings)),
		zap.Int("sources", len(result.VisitedURLs)),
		zap.Int("contradictions", len(result.Contradictions)),
		zap.String("dir", session.Dir),
	)
	return session, errs
}

// Research runs a session with the configured breadth and depth. It lets a
// pipeline serve as the researcher of a batch.
func (p *Pipeline) Research(ctx context.Context, query string) (model.Result, error) {
	s, err := p.Run(ctx, query, 0, 0)
	if s == nil {
		return model.Result{}, err
	}
	return s.Result, err
}

func (p *Pipeline) buildReports(ctx context.Context, result model.Result, started time.Time, autoTune bool) report.Reports {
	p.logger.Info("writing final report")
	r := report.Reports{
		Final: p.reports.FinalReport(ctx, result),
	}
	p.logger.Info("writing chain of thought report")
	r.ChainOfThought = p.reports.ChainOfThoughtReport(ctx, result.ChainOfThought)
	r.Sources = report.SourcesSection(result.VisitedURLs, result.SourceEvaluations)
	r.DataQuality = report.DataQualitySection(result.Contradictions, started)
	if autoTune {
		r.AutoTuning = report.AutoTuningSection(result.ChainOfThought)
	}
	return r
}

func (p *Pipeline) writeErrorLog(query string, req engine.Request, cause error, started time.Time) {
	params := fmt.Sprintf("Parameters - Depth: %d, Breadth: %d", req.Depth, req.Breadth)
	if req.Config.AutoTune {
		params = fmt.Sprintf("Auto-tuning enabled - Max depth: %d, Max breadth: %d", req.Config.MaxDepth, req.Config.MaxBreadth)
		if req.Config.TimeBudget > 0 {
			params += fmt.Sprintf("\nTime budget: %s", req.Config.TimeBudget)
		}
	}
	dir := report.SessionDir(p.cfg.Output.Dir, started)
	if err := report.WriteErrorLog(dir, query, params, cause, p.now()); err != nil {
		p.logger.Error("error log not written", zap.Error(err))
	}
}

// History returns the history store, nil if disabled
func (p *Pipeline) History() *store.Store { return p.history }

// Close releases the history store
func (p *Pipeline) Close() {
	if p.history == nil {
		return
	}
	if err := p.history.Close(); err != nil {
		p.logger.Warn("close history", zap.Error(err))
	}
	p.history = nil
}
