package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/deepresearch/internal/model"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestAddLearning_Deduplicates(t *testing.T) {
	m := New()

	assert.True(t, m.AddLearning("Revenue grew 10%"))
	assert.False(t, m.AddLearning("Revenue grew 10%"))
	assert.True(t, m.AddLearning("revenue grew 10%"), "identity is exact, case matters")

	assert.Equal(t, []string{"Revenue grew 10%", "revenue grew 10%"}, m.Learnings())
}

func TestAddLearnings_ReturnsOnlyNew(t *testing.T) {
	m := New()
	m.AddLearning("a")

	added := m.AddLearnings([]string{"a", "b", "c", "b"})

	assert.Equal(t, []string{"b", "c"}, added)
	assert.Equal(t, []string{"a", "b", "c"}, m.Learnings())
}

func TestAddURL_PreservesFirstSeenOrder(t *testing.T) {
	m := New()
	m.AddURLs([]string{"https://b.com", "https://a.com", "https://b.com"})
	m.AddURL("https://a.com")

	assert.Equal(t, []string{"https://b.com", "https://a.com"}, m.VisitedURLs())
}

func TestAddThought_Timestamped(t *testing.T) {
	m := New(WithClock(fixedClock()))
	m.AddThought("Starting")
	m.AddThought("Starting")

	thoughts := m.ChainOfThought()
	require.Len(t, thoughts, 2, "thoughts are never deduplicated")
	assert.Equal(t, "[2024-03-15 09:30:00] Starting", thoughts[0])
}

func TestAddContradiction_RecordsAndNarrates(t *testing.T) {
	m := New(WithClock(fixedClock()))
	m.AddContradiction("Performance", "sales grew", "sales declined", "", "")

	cs := m.Contradictions()
	require.Len(t, cs, 1)
	assert.Equal(t, "Performance", cs[0].Topic)
	assert.Equal(t, "sales grew", cs[0].Claim1)
	assert.Equal(t, "sales declined", cs[0].Claim2)
	assert.Equal(t, 1, m.ContradictionCount())

	thoughts := m.ChainOfThought()
	require.Len(t, thoughts, 1)
	assert.Contains(t, thoughts[0], "Contradiction detected in topic 'Performance': sales grew vs sales declined")
}

func TestUpdateInformationMap(t *testing.T) {
	m := New()

	require.NoError(t, m.UpdateInformationMap("Acme", model.InfoConsensus, "a", "b"))
	require.NoError(t, m.UpdateInformationMap("Acme", model.InfoGaps, "c"))
	require.NoError(t, m.UpdateInformationMap("Acme", model.InfoConsensus, "d"))

	entry := m.InformationMap()["Acme"]
	assert.Equal(t, []string{"a", "b", "d"}, entry.Consensus)
	assert.Equal(t, []string{"c"}, entry.Gaps)
	assert.Empty(t, entry.Contradictions)
	assert.NotNil(t, entry.Contradictions)
}

func TestUpdateInformationMap_UnknownKind(t *testing.T) {
	m := New()

	err := m.UpdateInformationMap("Acme", model.InfoKind("rumours"), "x")
	assert.ErrorIs(t, err, ErrUnknownInfoKind)
	assert.Empty(t, m.InformationMap())
}

func TestAccessorsReturnCopies(t *testing.T) {
	m := New()
	m.AddLearning("a")
	_ = m.UpdateInformationMap("t", model.InfoGaps, "g")

	l := m.Learnings()
	l[0] = "mutated"
	im := m.InformationMap()
	im["t"].Gaps[0] = "mutated"

	assert.Equal(t, []string{"a"}, m.Learnings())
	assert.Equal(t, []string{"g"}, m.InformationMap()["t"].Gaps)
}

func TestCurrentDateFixedAtConstruction(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return time.Date(2024, 1, calls, 0, 0, 0, 0, time.UTC)
	}
	m := New(WithClock(clock))
	m.AddThought("later")

	assert.Equal(t, 1, m.CurrentDate().Day())
}

func TestFill(t *testing.T) {
	m := New()
	m.AddLearning("l")
	m.AddURL("u")
	m.AddSourceEvaluation(model.SourceEvaluation{URL: "u", CredibilityRating: model.RatingHigh})

	r := model.NewResult("q")
	m.Fill(&r)

	assert.Equal(t, []string{"l"}, r.Learnings)
	assert.Equal(t, []string{"u"}, r.VisitedURLs)
	assert.Len(t, r.SourceEvaluations, 1)
	assert.NotNil(t, r.Contradictions)
}
