package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_Performance(t *testing.T) {
	d := NewDetector()
	existing := []string{"Acme revenue shows strong growth in Q3"}

	findings := d.Detect("Acme revenue saw a sharp decline in Q3", existing)

	require.Len(t, findings, 1)
	assert.Equal(t, "Performance", findings[0].Topic)
	assert.Equal(t, existing[0], findings[0].Existing)
	assert.Equal(t, "Acme revenue saw a sharp decline in Q3", findings[0].New)
}

func TestDetect_SameSentimentIsNotContradiction(t *testing.T) {
	d := NewDetector()
	findings := d.Detect("Sales increase continued", []string{"Profit growth was strong"})
	assert.Empty(t, findings)
}

func TestDetect_EventDates(t *testing.T) {
	d := NewDetector()

	findings := d.Detect("The product launch is scheduled for March 2025",
		[]string{"Acme announced the launch for June 2025", "Unrelated note about weather"})
	require.Len(t, findings, 1)
	assert.Equal(t, "Event Dates", findings[0].Topic)

	same := d.Detect("Launch scheduled for June 2025", []string{"Launch announced for June 2025"})
	assert.Empty(t, same)

	undated := d.Detect("Launch scheduled soon", []string{"Launch announced for June 2025"})
	assert.Empty(t, undated)
}

func TestDetect_LayoffTimeline(t *testing.T) {
	d := NewDetector()

	findings := d.Detect("Acme will begin layoffs next year", []string{"Acme completed its layoff program"})
	require.Len(t, findings, 1)
	assert.Equal(t, "Layoff Timeline", findings[0].Topic)
}

func TestDetect_MultipleFamiliesAndLearnings(t *testing.T) {
	d := NewDetector()
	existing := []string{
		"Revenue growth was strong",
		"Profit fell, a weak quarter",
		"Layoff plan announced for the future",
	}

	findings := d.Detect("Revenue decline after layoffs were completed", existing)

	topics := make([]string, len(findings))
	for i, f := range findings {
		topics[i] = f.Topic
	}
	assert.Equal(t, []string{"Performance", "Layoff Timeline"}, topics)
}

func TestDetect_NoExisting(t *testing.T) {
	assert.Nil(t, NewDetector().Detect("Revenue declined", nil))
}

type alwaysRule struct{}

func (alwaysRule) Topic() string                 { return "Custom" }
func (alwaysRule) Relevant(string) bool          { return true }
func (alwaysRule) Conflicts(string, string) bool { return true }

func TestDetect_CustomRules(t *testing.T) {
	d := NewDetector(alwaysRule{})
	findings := d.Detect("x", []string{"a", "b"})
	require.Len(t, findings, 2)
	assert.Equal(t, "Custom", findings[1].Topic)
	assert.Equal(t, "b", findings[1].Existing)
}
