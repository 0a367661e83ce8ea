package tune

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/deepresearch/internal/model"
)

func newTuner(t *testing.T, maxDepth, maxBreadth int, budget time.Duration) *Tuner {
	t.Helper()
	tu, err := New(maxDepth, maxBreadth, budget)
	require.NoError(t, err)
	return tu
}

func TestNew_RejectsBadBounds(t *testing.T) {
	_, err := New(0, 8, 0)
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "max_depth", cfgErr.Field)

	_, err = New(5, 1, 0)
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "max_breadth", cfgErr.Field)
}

func TestAnalyzeComplexity(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)

	tests := []struct {
		name     string
		query    string
		entities int
		aspects  int
		keywords int
	}{
		{"empty", "", 0, 0, 0},
		{"simple", "What is Go?", 2, 0, 0},
		{"two word entity", "Tell me about Federal Reserve policy", 2, 0, 0},
		{"acronym", "NASA budget", 1, 0, 0},
		{"aspects", "cost, risk; and price", 0, 3, 0},
		{"keyword presence not occurrences", "impact impact impact", 0, 0, 1},
		{"and inside words counts", "android handheld", 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tu.AnalyzeComplexity(tt.query)
			assert.Equal(t, tt.entities, m.EntityCount)
			assert.Equal(t, tt.aspects, m.AspectCount)
			assert.Equal(t, tt.keywords, m.KeywordCount)
			assert.GreaterOrEqual(t, m.Score, 0.0)
			assert.LessOrEqual(t, m.Score, 1.0)
		})
	}
}

func TestAnalyzeComplexity_Saturates(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)
	q := "Compare and contrast the impact, effects and implications of Federal Reserve policy on Apple, " +
		"Microsoft, Google and Amazon; analyze the trend, development, causes and relationship, then synthesize and evaluate"

	m := tu.AnalyzeComplexity(q)
	assert.Equal(t, 12, m.KeywordCount)
	assert.Equal(t, 1.0, m.Score)

	d, b := tu.DetermineInitialParameters(m)
	assert.Equal(t, 5, d)
	assert.Equal(t, 8, b)
}

func TestDetermineInitialParameters(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)

	d, b := tu.DetermineInitialParameters(Metrics{Score: 0})
	assert.Equal(t, 1, d)
	assert.Equal(t, 2, b)

	d, b = tu.DetermineInitialParameters(tu.AnalyzeComplexity("What is Go?"))
	assert.Equal(t, 1, d)
	assert.Equal(t, 3, b)
}

func TestDetermineInitialParameters_RoundsHalfToEven(t *testing.T) {
	tu := newTuner(t, 4, 5, 0)

	d, b := tu.DetermineInitialParameters(Metrics{Score: 0.5})
	assert.Equal(t, 2, d, "2.5 rounds to 2")
	assert.Equal(t, 4, b, "3.5 rounds to 4")
}

func TestDetermineInitialParameters_Monotonic(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)
	prevD, prevB := 0, 0
	for s := 0.0; s <= 1.0; s += 0.05 {
		d, b := tu.DetermineInitialParameters(Metrics{Score: s})
		assert.GreaterOrEqual(t, d, prevD)
		assert.GreaterOrEqual(t, b, prevB)
		assert.True(t, d >= 1 && d <= 5)
		assert.True(t, b >= 2 && b <= 8)
		prevD, prevB = d, b
	}
}

func TestAdjustParameters(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)

	tests := []struct {
		name           string
		depth, breadth int
		quality, time  float64
		wantD, wantB   int
	}{
		{"poor quality widens", 2, 3, 0.2, 0, 3, 5},
		{"good quality narrows", 2, 3, 0.8, 0, 1, 2},
		{"middling quality adds breadth", 2, 3, 0.5, 0, 2, 4},
		{"boundary 0.3 is middling", 2, 3, 0.3, 0, 2, 4},
		{"boundary 0.7 is middling", 2, 3, 0.7, 0, 2, 4},
		{"time pressure", 2, 3, 0.5, 0.8, 1, 2},
		{"time pressure with poor quality", 3, 6, 0.1, 0.9, 3, 6},
		{"clamped at max", 5, 8, 0.1, 0, 5, 8},
		{"clamped at min", 1, 2, 0.9, 0.9, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, b := tu.AdjustParameters(tt.depth, tt.breadth, tt.quality, tt.time)
			assert.Equal(t, tt.wantD, d)
			assert.Equal(t, tt.wantB, b)
		})
	}
}

func TestAdjustParameters_TimePressureNeverGrows(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)
	for _, q := range []float64{0, 0.2, 0.5, 0.8, 1} {
		for d := 1; d <= 5; d++ {
			for b := 2; b <= 8; b++ {
				relaxedD, relaxedB := tu.AdjustParameters(d, b, q, 0)
				pressedD, pressedB := tu.AdjustParameters(d, b, q, 0.9)
				assert.LessOrEqual(t, pressedD, relaxedD)
				assert.LessOrEqual(t, pressedB, relaxedB)
			}
		}
	}
}

func TestEstimateInfoQuality(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)

	assert.Equal(t, 0.0, tu.EstimateInfoQuality(nil, 0))

	q := tu.EstimateInfoQuality([]string{"a b c"}, 0)
	assert.InDelta(t, 0.3*5.0/300+0.3+0.4, q, 1e-9)

	withContradiction := tu.EstimateInfoQuality([]string{"a b c"}, 1)
	assert.InDelta(t, 0.3*5.0/300+0.4, withContradiction, 1e-9)
	assert.Less(t, withContradiction, q)
}

func TestEstimateInfoQuality_RepetitionLowersDiversity(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)
	varied := tu.EstimateInfoQuality([]string{"alpha beta gamma delta epsilon zeta"}, 0)
	repeated := tu.EstimateInfoQuality([]string{"alpha alpha alpha alpha alpha alpha Alpha ALPHA"}, 0)
	assert.Less(t, repeated, varied)
}

func TestTimeUsageFraction(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tu := newTuner(t, 5, 8, 100*time.Second)
	tu.SetClock(clock)

	assert.Equal(t, 0.0, tu.TimeUsageFraction(), "not started")

	tu.Start()
	now = now.Add(25 * time.Second)
	assert.InDelta(t, 0.25, tu.TimeUsageFraction(), 1e-9)

	tu.Start()
	now = now.Add(25 * time.Second)
	assert.InDelta(t, 0.5, tu.TimeUsageFraction(), 1e-9, "second Start is ignored")

	now = now.Add(time.Hour)
	assert.Equal(t, 1.0, tu.TimeUsageFraction())
}

func TestTimeUsageFraction_NoBudget(t *testing.T) {
	tu := newTuner(t, 5, 8, 0)
	tu.Start()
	assert.Equal(t, 0.0, tu.TimeUsageFraction())
}
