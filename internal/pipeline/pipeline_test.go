package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/deepresearch/internal/engine"
	"github.com/ppiankov/deepresearch/internal/llm"
	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/report"
	"github.com/ppiankov/deepresearch/internal/store"
)

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, query string, _ int) ([]model.SearchResult, error) {
	return []model.SearchResult{{URL: "https://example.com/" + strings.ReplaceAll(query, " ", "-")}}, nil
}

type stubScraper struct{}

func (stubScraper) BatchScrape(_ context.Context, urls []string, _ model.ScrapeOptions) ([]model.ScrapedPage, error) {
	pages := make([]model.ScrapedPage, len(urls))
	for i, u := range urls {
		pages[i] = model.ScrapedPage{URL: u, StatusCode: 200, Markdown: "Acme reported results for " + u}
	}
	return pages, nil
}

// stubGenerator answers every step with a fixed document
type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, req llm.Request, out any) error {
	var body string
	switch req.Step {
	case "serp_queries":
		body = `{"queries":[{"query":"acme results","research_goal":"earnings"}]}`
	case "search_engine_queries":
		body = `{"queries":["acme results"]}`
	case "source_evaluation":
		body = `{"evaluations":[]}`
	case "extraction":
		body = `{"learnings":["Acme revenue rose in 2024"],"follow_up_questions":["What about margins?"]}`
	case "final_report":
		body = `{"markdown":"# Acme"}`
	case "chain_of_thought":
		body = `{"summary":"searched once"}`
	default:
		body = `{}`
	}
	return json.Unmarshal([]byte(body), out)
}

func testConfig(t *testing.T) model.Config {
	cfg := model.DefaultConfig()
	cfg.LLM.Model = "test-model"
	cfg.Output.Dir = filepath.Join(t.TempDir(), "research_output")
	cfg.Store.Enabled = false
	return cfg
}

func testDeps(t *testing.T) engine.Dependencies {
	return engine.Dependencies{
		Searcher:  stubSearcher{},
		Scraper:   stubScraper{},
		Generator: stubGenerator{},
		Logger:    zaptest.NewLogger(t),
	}
}

func fixedClock() time.Time { return time.Date(2025, 3, 14, 9, 5, 7, 0, time.UTC) }

func TestRun_WritesSessionAndHistory(t *testing.T) {
	history, err := store.Open(":memory:")
	require.NoError(t, err)

	p, err := New(testConfig(t), testDeps(t), WithHistory(history), WithClock(fixedClock))
	require.NoError(t, err)
	defer p.Close()

	session, err := p.Run(context.Background(), "How is Acme doing?", 1, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme revenue rose in 2024"}, session.Result.Learnings)
	assert.Equal(t, "# Acme", session.Reports.Final)
	assert.Equal(t, "searched once", session.Reports.ChainOfThought)
	assert.Empty(t, session.Reports.AutoTuning)
	assert.True(t, strings.HasSuffix(session.Dir, "session_20250314_090507"))
	assert.FileExists(t, filepath.Join(session.Dir, report.CombinedFile))

	stored, err := p.History().Get(context.Background(), session.Result.RunID)
	require.NoError(t, err)
	assert.Equal(t, session.Result.Learnings, stored.Learnings)
}

func TestRun_NoReports(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.WriteReports = false
	p, err := New(cfg, testDeps(t))
	require.NoError(t, err)

	session, err := p.Run(context.Background(), "q", 1, 1)
	require.NoError(t, err)
	assert.Empty(t, session.Dir)
	_, statErr := os.Stat(cfg.Output.Dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_AutoTuningSection(t *testing.T) {
	cfg := testConfig(t)
	cfg.Research.AutoTune = true
	cfg.Research.MaxDepth = 1
	cfg.Research.MaxBreadth = 2
	p, err := New(cfg, testDeps(t), WithClock(fixedClock))
	require.NoError(t, err)

	session, err := p.Run(context.Background(), "q", 0, 0)
	require.NoError(t, err)
	assert.True(t, session.Result.AutoTuned)
	assert.Contains(t, session.Reports.AutoTuning, "## Auto-Tuning Decisions")
	assert.FileExists(t, filepath.Join(session.Dir, report.AutoTuningFile))
}

func TestNew_InvalidConfiguration(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Model = ""
	_, err := New(cfg, testDeps(t))

	var cfgErr *model.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestResearch_ImplementsBatchResearcher(t *testing.T) {
	cfg := testConfig(t)
	cfg.Research.Breadth, cfg.Research.Depth = 1, 1
	cfg.Output.WriteReports = false
	p, err := New(cfg, testDeps(t))
	require.NoError(t, err)

	result, err := p.Research(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Breadth)
	assert.Equal(t, 1, result.Depth)
}
