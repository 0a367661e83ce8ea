package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/memory"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/progress"
	"github.com/ppiankov/deepresearch/internal/tune"
	"github.com/ppiankov/deepresearch/internal/validate"
)

// run is the state owned by one Research call
type run struct {
	e         *Engine
	id        string
	logger    *zap.Logger
	memory    *memory.Memory
	progress  *progress.Tracker
	tuner     *tune.Tuner // nil unless auto-tuning
	validator validate.ContentValidator

	expansions int
	// learningSources maps a stored learning to the sources it was extracted from
	learningSources map[string]string
}

// frame is one open research iteration on the worklist
type frame struct {
	query   string
	depth   int
	breadth int
	queries []model.SerpQuery
	next    int
}

// Research runs a full research session for query. A non-positive breadth or
// depth is auto-tuned when enabled, otherwise the defaults (4, 2) apply.
// Research never fails: step errors are recorded in the chain of thought and
// the run continues with whatever it has.
func (e *Engine) Research(ctx context.Context, query string, breadth, depth int) model.Result {
	r := e.newRun()
	id := r.id

	startedAt := e.now()
	autoTuned := false
	if e.cfg.AutoTune {
		// Bounds were checked in New
		tuner, _ := tune.New(e.cfg.MaxDepth, e.cfg.MaxBreadth, e.cfg.TimeBudget)
		tuner.SetClock(e.now)
		r.tuner = tuner

		if breadth <= 0 || depth <= 0 {
			metrics := tuner.AnalyzeComplexity(query)
			tunedDepth, tunedBreadth := tuner.DetermineInitialParameters(metrics)
			if depth <= 0 {
				depth = tunedDepth
			}
			if breadth <= 0 {
				breadth = tunedBreadth
			}
			autoTuned = true
			r.thought("Auto-tuned parameters - Initial depth: %d, breadth: %d (complexity score: %.2f)",
				depth, breadth, metrics.Score)
		}
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	if breadth <= 0 {
		breadth = DefaultBreadth
	}

	r.progress = progress.New(depth, breadth,
		progress.WithLogger(r.logger),
		progress.WithClock(e.now),
		progress.WithObserver(e.observer),
	)
	if r.tuner != nil {
		r.tuner.Start()
	}

	r.logger.Info("research started",
		zap.String("query", query),
		zap.Int("depth", depth),
		zap.Int("breadth", breadth),
		zap.Bool("auto_tuned", autoTuned),
	)
	r.thought("Starting deep research on: %s", query)
	r.thought("Research parameters - Breadth: %d, Depth: %d", breadth, depth)
	r.thought("Current date context: %s", r.memory.CurrentDate().Format("2006-01-02"))

	r.explore(ctx, query, depth, breadth)

	r.thought("Research process completed")

	result := model.NewResult(query)
	r.memory.Fill(&result)
	result.RunID = id
	result.Breadth = breadth
	result.Depth = depth
	result.AutoTuned = autoTuned
	result.StartedAt = startedAt
	result.FinishedAt = e.now()
	result.Progress = r.progress.Snapshot()

	r.logger.Info("research finished",
		zap.Int("learnings", len(result.Learnings)),
		zap.Int("urls", len(result.VisitedURLs)),
		zap.Int("contradictions", len(result.Contradictions)),
		zap.Duration("elapsed", result.FinishedAt.Sub(startedAt)),
	)
	return result
}

func (e *Engine) newRun() *run {
	id := uuid.NewString()
	r := &run{
		e:               e,
		id:              id,
		logger:          e.logger.With(zap.String("run_id", id)),
		learningSources: make(map[string]string),
	}
	r.memory = memory.New(memory.WithClock(e.now), memory.WithLogger(r.logger))
	r.validator = e.validator
	if r.validator == nil {
		r.validator = validate.NewClassifier(r.memory.CurrentDate())
	}
	return r
}

// explore walks the research tree depth-first. A follow-up iteration is fully
// explored before the next sibling query of its parent runs.
func (r *run) explore(ctx context.Context, query string, depth, breadth int) {
	var stack []*frame

	open := func(q string, d, b int) {
		if limit := r.e.cfg.MaxExpansions; limit > 0 && r.expansions >= limit {
			r.thought("Expansion limit of %d iterations reached. Not following: %s", limit, firstLine(q))
			return
		}
		r.expansions++

		r.thought("Starting research iteration at depth %d with breadth %d", d, b)
		r.thought("Iteration query: %s", q)

		queries := r.generateSerpQueries(ctx, q, b)
		if len(queries) == 0 {
			r.thought("Failed to generate search queries. Ending this research path.")
			return
		}
		r.progress.Update(func(p *model.ProgressSnapshot) { p.TotalQueries += len(queries) })
		stack = append(stack, &frame{query: q, depth: d, breadth: b, queries: queries})
	}

	open(query, depth, breadth)
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			r.thought("Research cancelled: %v", err)
			return
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.queries) {
			stack = stack[:len(stack)-1]
			continue
		}
		sq := top.queries[top.next]
		top.next++

		outcome := r.executeQuery(ctx, sq, top.depth, top.breadth)
		r.progress.Update(func(p *model.ProgressSnapshot) { p.CompletedQueries++ })

		if outcome.Success && top.depth > 1 && len(outcome.FollowUpQuestions) > 0 {
			nextDepth, nextBreadth := r.nextLevel(top.depth, top.breadth)
			open(nextQuery(sq.ResearchGoal, outcome.FollowUpQuestions), nextDepth, nextBreadth)
		}
	}
}

// nextLevel sizes a follow-up iteration
func (r *run) nextLevel(depth, breadth int) (int, int) {
	if r.tuner == nil {
		return depth - 1, max(1, (breadth+1)/2)
	}

	quality := r.tuner.EstimateInfoQuality(r.memory.Learnings(), r.memory.ContradictionCount())
	timeUsed := r.tuner.TimeUsageFraction()
	nextDepth, nextBreadth := r.tuner.AdjustParameters(depth-1, breadth, quality, timeUsed)
	if nextDepth != depth-1 || nextBreadth != breadth {
		r.thought("Auto-adjusted parameters - New depth: %d, breadth: %d (info quality: %.2f, time usage: %.2f)",
			nextDepth, nextBreadth, quality, timeUsed)
	}
	return nextDepth, nextBreadth
}

// nextQuery builds the prompt of a follow-up iteration from the parent's goal
// and its first follow-up questions
func nextQuery(goal string, followUps []string) string {
	if len(followUps) > maxFollowUpsPerQuery {
		followUps = followUps[:maxFollowUpsPerQuery]
	}
	return strings.TrimSpace("Previous research goal: " + goal +
		"\nFollow-up research directions:\n" + strings.Join(followUps, "\n"))
}

func (r *run) thought(format string, args ...any) {
	r.memory.AddThought(fmt.Sprintf(format, args...))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
