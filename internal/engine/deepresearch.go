package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/model"
)

// Request describes one research session
type Request struct {
	Breadth int // 0 = auto-tune or default
	Depth   int // 0 = auto-tune or default
	Config  Config
}

// Dependencies are the collaborators a session runs against
type Dependencies struct {
	Searcher  Searcher
	Scraper   Scraper
	Generator Generator
	Logger    *zap.Logger
	Options   []Option
}

// DeepResearch builds an engine and runs one session. It always returns a
// complete result shape. When the engine cannot be built, or the run panics,
// the result carries the error as its only learning and thought; construction
// failures are also returned as the error.
func DeepResearch(ctx context.Context, query string, req Request, deps Dependencies) (result model.Result, err error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []Option{
		WithSearcher(deps.Searcher),
		WithScraper(deps.Scraper),
		WithGenerator(deps.Generator),
		WithLogger(logger),
	}
	e, err := New(req.Config, append(opts, deps.Options...)...)
	if err != nil {
		logger.Error("research setup failed", zap.Error(err))
		return degradedResult(query, err), err
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("research panicked", zap.String("query", query), zap.Any("panic", p))
			result = degradedResult(query, fmt.Errorf("%v", p))
		}
	}()
	return e.Research(ctx, query, req.Breadth, req.Depth), nil
}

func degradedResult(query string, err error) model.Result {
	r := model.NewResult(query)
	r.Learnings = []string{fmt.Sprintf("Research error: %v", err)}
	r.ChainOfThought = []string{fmt.Sprintf("Critical error in research process: %v", err)}
	return r
}
