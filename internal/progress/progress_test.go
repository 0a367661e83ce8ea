package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/deepresearch/internal/model"
)

func TestTracker_InitialState(t *testing.T) {
	tr := New(3, 4)
	snap := tr.Snapshot()

	assert.Equal(t, 3, snap.TotalDepth)
	assert.Equal(t, 3, snap.CurrentDepth)
	assert.Equal(t, 4, snap.TotalBreadth)
	assert.Equal(t, 4, snap.CurrentBreadth)
	assert.Zero(t, snap.TotalQueries)
	assert.Zero(t, tr.CompletionPercentage())
}

func TestTracker_UpdateAndPercentage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := New(2, 4, WithClock(func() time.Time { return now }))

	tr.Update(func(p *model.ProgressSnapshot) {
		p.TotalQueries = 4
		p.CompletedQueries = 1
		p.CurrentQuery = "battery supply chain"
	})
	now = now.Add(90 * time.Second)

	snap := tr.Snapshot()
	assert.Equal(t, "battery supply chain", snap.CurrentQuery)
	assert.InDelta(t, 25.0, tr.CompletionPercentage(), 1e-9)
	assert.InDelta(t, 90.0, snap.ElapsedSeconds, 1e-9)
}

func TestTracker_ObserverAndLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var seen []model.ProgressSnapshot
	tr := New(1, 2,
		WithLogger(zap.New(core)),
		WithObserver(func(s model.ProgressSnapshot) { seen = append(seen, s) }),
	)

	tr.Update(func(p *model.ProgressSnapshot) { p.TotalQueries = 2 })
	tr.Update(func(p *model.ProgressSnapshot) { p.CompletedQueries = 2 })

	require.Len(t, seen, 2)
	assert.Equal(t, 2, seen[1].CompletedQueries)

	entries := logs.FilterMessage("research progress").All()
	require.Len(t, entries, 2)
	assert.Equal(t, 100.0, entries[1].ContextMap()["completion_pct"])
}
