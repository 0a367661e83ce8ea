package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/deepresearch/internal/model"
)

type fakeResearcher struct {
	failOn string
}

func (f *fakeResearcher) Research(ctx context.Context, query string) (model.Result, error) {
	if query == f.failOn {
		return model.Result{}, errors.New("provider unavailable")
	}
	r := model.NewResult(query)
	r.Learnings = []string{"learning about " + query}
	return r, nil
}

func writeQueries(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBatchProcessor_ProcessQueries(t *testing.T) {
	p := NewBatchProcessor(&fakeResearcher{failOn: "broken"}, 2)

	outcomes := p.ProcessQueries(context.Background(), []string{"solar costs", "broken", "grid storage"})
	require.Len(t, outcomes, 3)

	assert.Equal(t, "solar costs", outcomes[0].Query)
	require.NoError(t, outcomes[0].GetError())
	assert.Equal(t, []string{"learning about solar costs"}, outcomes[0].Result.Learnings)

	assert.Error(t, outcomes[1].GetError())
	assert.Nil(t, outcomes[1].Result)

	assert.Equal(t, "grid storage", outcomes[2].Query)
	assert.NoError(t, outcomes[2].GetError())
}

func TestBatchProcessor_ProcessQueries_Empty(t *testing.T) {
	p := NewBatchProcessor(&fakeResearcher{}, 2)
	assert.Empty(t, p.ProcessQueries(context.Background(), nil))
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeQueries(t, "solar costs\n# comment\n\nsolar costs\n  grid storage  \n")
	p := NewBatchProcessor(&fakeResearcher{}, 2)

	outcomes, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "grid storage", outcomes[1].Query)
}

func TestBatchProcessor_ProcessFile_Missing(t *testing.T) {
	p := NewBatchProcessor(&fakeResearcher{}, 2)
	_, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "none.txt"))
	assert.Error(t, err)
}

func TestReadQueriesFromFile(t *testing.T) {
	path := writeQueries(t, strings.Join([]string{"a", "#b", "", "c", "a"}, "\n"))
	queries, err := ReadQueriesFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, queries)
}
