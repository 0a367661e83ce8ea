package prompts

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/deepresearch/internal/model"
)

func fixedBuilder(t *testing.T, domain string) *Builder {
	t.Helper()
	b, err := New(domain)
	require.NoError(t, err)
	b.SetClock(func() time.Time { return time.Date(2025, 6, 30, 9, 15, 0, 0, time.UTC) })
	return b
}

func TestDomains(t *testing.T) {
	assert.Equal(t, []string{"consumer", "engineering", "finance", "policy", "science"}, Domains())
}

func TestNew(t *testing.T) {
	b, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "finance", b.Domain())

	b, err = New(" Science ")
	require.NoError(t, err)
	assert.Equal(t, "science", b.Domain())

	_, err = New("astrology")
	var cerr *model.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Reason, "finance")
}

func TestSystem(t *testing.T) {
	finance := fixedBuilder(t, "finance").System()
	assert.Contains(t, finance, "2025-06-30T09:15:00Z")
	assert.Contains(t, finance, "**Finance focus:**")
	assert.Contains(t, finance, "- Keep historical results separate from forecasts and guidance")

	science := fixedBuilder(t, "science").System()
	assert.Contains(t, science, "**Science focus:**")
	assert.NotContains(t, science, "Finance")
}

func TestSerpQueries(t *testing.T) {
	b := fixedBuilder(t, "")

	without := b.SerpQueries("Tesla Q3 deliveries", 3, nil)
	assert.Contains(t, without, "at most 3 queries")
	assert.Contains(t, without, "<prompt>Tesla Q3 deliveries</prompt>")
	assert.NotContains(t, without, "<learnings>")

	with := b.SerpQueries("Tesla Q3 deliveries", 2, []string{"first", "second"})
	assert.Contains(t, with, "<learnings>\nfirst\n\nsecond\n</learnings>")
}

func TestSearchEngineQueries(t *testing.T) {
	p := fixedBuilder(t, "").SearchEngineQueries("EU battery regulation")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p), "<prompt>EU battery regulation</prompt>"))
}

func TestSourceEvaluation(t *testing.T) {
	p := fixedBuilder(t, "").SourceEvaluation("<source id='1'>x</source>")
	assert.Contains(t, p, "medium-high")
	assert.Contains(t, p, "<source id='1'>x</source>")
}

func TestExtraction(t *testing.T) {
	b := fixedBuilder(t, "")

	p := b.Extraction("copper demand", "<content>\nabc\n</content>", 4, "")
	assert.Contains(t, p, "<query>copper demand</query>")
	assert.Contains(t, p, "today's date, 2025-06-30")
	assert.Contains(t, p, "Return up to 4 insights")
	assert.Contains(t, p, "<contents>\n<content>\nabc\n</content>\n</contents>")

	withIssues := b.Extraction("q", "c", 2, "Validation issues:\n- Source u: bad")
	assert.Contains(t, withIssues, "Validation issues:\n- Source u: bad")
}

func TestChainOfThought(t *testing.T) {
	p := fixedBuilder(t, "").ChainOfThought("[t] step one\n[t] step two")
	assert.Contains(t, p, "<chain_of_thought>[t] step one\n[t] step two</chain_of_thought>")
}

func TestFinalReport(t *testing.T) {
	p := fixedBuilder(t, "policy").FinalReport(FinalReportInput{
		Query:          "carbon tax impact",
		Learnings:      "<learning>\nL1\n</learning>",
		Contradictions: "<contradictions>\n1. x\n</contradictions>",
	})

	assert.Contains(t, p, "Today's date is 2025-06-30")
	assert.Contains(t, p, "**Policy report requirements:**")
	assert.Contains(t, p, "Stakeholder Analysis")
	assert.Contains(t, p, "<prompt>carbon tax impact</prompt>")
	assert.Contains(t, p, "<learnings><learning>\nL1\n</learning></learnings>")
	assert.Contains(t, p, "<contradictions>\n1. x\n</contradictions>")
	assert.NotContains(t, p, "<topic>")
}
