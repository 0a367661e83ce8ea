// Package progress tracks how far a research run has come.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/model"
)

// Observer is notified with a copy of the snapshot after every update
type Observer func(model.ProgressSnapshot)

// Tracker holds the progress counters of one run
type Tracker struct {
	mu       sync.Mutex
	snap     model.ProgressSnapshot
	start    time.Time
	now      func() time.Time
	logger   *zap.Logger
	observer Observer
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLogger sets the logger used for per-update Debug lines
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithObserver registers a callback run after each update
func WithObserver(o Observer) Option {
	return func(t *Tracker) { t.observer = o }
}

// New starts tracking a run planned at the given depth and breadth
func New(depth, breadth int, opts ...Option) *Tracker {
	t := &Tracker{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.now()
	t.snap = model.ProgressSnapshot{
		TotalDepth:     depth,
		CurrentDepth:   depth,
		TotalBreadth:   breadth,
		CurrentBreadth: breadth,
	}
	return t
}

// Update applies fn to the counters, then logs and notifies the observer
func (t *Tracker) Update(fn func(*model.ProgressSnapshot)) {
	t.mu.Lock()
	fn(&t.snap)
	snap := t.snapshotLocked()
	observer := t.observer
	t.mu.Unlock()

	t.logger.Debug("research progress",
		zap.Float64("elapsed_seconds", snap.ElapsedSeconds),
		zap.Int("current_depth", snap.CurrentDepth),
		zap.Int("total_depth", snap.TotalDepth),
		zap.Int("current_breadth", snap.CurrentBreadth),
		zap.Int("total_breadth", snap.TotalBreadth),
		zap.Int("completed_queries", snap.CompletedQueries),
		zap.Int("total_queries", snap.TotalQueries),
		zap.String("current_query", snap.CurrentQuery),
		zap.Float64("completion_pct", snap.CompletionPercentage()),
	)

	if observer != nil {
		observer(snap)
	}
}

// Snapshot returns the current counters with elapsed time filled in
func (t *Tracker) Snapshot() model.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// CompletionPercentage is completed/total*100, or 0 before any query is planned
func (t *Tracker) CompletionPercentage() float64 {
	return t.Snapshot().CompletionPercentage()
}

func (t *Tracker) snapshotLocked() model.ProgressSnapshot {
	snap := t.snap
	snap.ElapsedSeconds = t.now().Sub(t.start).Seconds()
	return snap
}
