package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/deepresearch/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(id, query string, started time.Time) model.Result {
	r := model.NewResult(query)
	r.RunID = id
	r.StartedAt = started
	r.Depth, r.Breadth = 2, 4
	r.Learnings = []string{"one", "two"}
	r.VisitedURLs = []string{"https://a.example"}
	r.Contradictions = []model.Contradiction{{Topic: "Performance", Claim1: "up", Claim2: "down"}}
	r.InformationMap["Performance"] = model.InformationEntry{Contradictions: []string{"up vs. down"}}
	return r
}

func TestSaveAndGet_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	in := result("run-1", "How is Acme doing?", time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))

	require.NoError(t, s.Save(ctx, in))
	out, err := s.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, in.Query, out.Query)
	assert.Equal(t, in.Learnings, out.Learnings)
	assert.Equal(t, in.InformationMap, out.InformationMap)
	assert.True(t, in.StartedAt.Equal(out.StartedAt))
}

func TestGet_NotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_RequiresRunID(t *testing.T) {
	s := newStore(t)
	assert.Error(t, s.Save(context.Background(), model.NewResult("q")))
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, result("old", "first", base)))
	require.NoError(t, s.Save(ctx, result("new", "second", base.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, result("mid", "third", base.Add(time.Minute))))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, 2, all[0].Learnings)
	assert.Equal(t, 1, all[0].Sources)
	assert.Equal(t, 1, all[0].Contradictions)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].ID)
}

func TestSave_ReplacesSameID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	r := result("run-1", "q", time.Now())
	require.NoError(t, s.Save(ctx, r))
	r.Learnings = append(r.Learnings, "three")
	require.NoError(t, s.Save(ctx, r))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].Learnings)
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}
