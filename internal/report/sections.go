package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/deepresearch/internal/model"
)

const maxKeyPoints = 3

// Reports holds every rendered piece of a research session
type Reports struct {
	Final          string
	ChainOfThought string
	Sources        string
	DataQuality    string
	AutoTuning     string // empty unless auto-tuning decided something
}

// SourcesSection lists the consulted URLs with their ratings and key points
func SourcesSection(urls []string, evals []model.SourceEvaluation) string {
	var b strings.Builder
	b.WriteString("## Sources\n\n")
	if len(urls) == 0 {
		b.WriteString("No sources were used in this research.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "The research process consulted %d sources:\n\n", len(urls))

	byURL := make(map[string]model.SourceEvaluation, len(evals))
	for _, e := range evals {
		byURL[e.URL] = e
	}

	for i, u := range urls {
		fmt.Fprintf(&b, "%d. %s", i+1, u)
		if e, ok := byURL[u]; ok && e.CredibilityRating != "" && e.RelevanceRating != "" {
			fmt.Fprintf(&b, " [Credibility: %s, Relevance: %s]",
				strings.ToUpper(string(e.CredibilityRating)), strings.ToUpper(string(e.RelevanceRating)))
			points := e.KeyPoints
			if len(points) > maxKeyPoints {
				points = points[:maxKeyPoints]
			}
			if len(points) > 0 {
				b.WriteString("\n   Key points:")
				for _, p := range points {
					b.WriteString("\n   - " + p)
				}
			}
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// DataQualitySection describes detected contradictions and how to read the findings
func DataQualitySection(cs []model.Contradiction, researchedAt time.Time) string {
	var b strings.Builder
	b.WriteString("## Data Quality Assessment\n\n")
	if len(cs) == 0 {
		b.WriteString("No significant data quality issues were detected during this research.\n")
		return b.String()
	}

	b.WriteString("### Detected Contradictions\n\n")
	fmt.Fprintf(&b, "The research process identified %d contradiction(s):\n\n", len(cs))
	for i, c := range cs {
		fmt.Fprintf(&b, "**Contradiction %d**: %s\n", i+1, c.Topic)
		fmt.Fprintf(&b, "* Claim 1: \"%s\"\n", c.Claim1)
		fmt.Fprintf(&b, "* Claim 2: \"%s\"\n", c.Claim2)
		if c.Source1 != "" || c.Source2 != "" {
			fmt.Fprintf(&b, "* Sources: %s vs. %s\n", orUnknown(c.Source1), orUnknown(c.Source2))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `
### Research Quality Considerations

When interpreting the research findings, please consider:

1. **Temporal Context**: Information may be time-sensitive. The research was conducted on %s.
2. **Source Credibility**: Not all sources have equal reliability. Source evaluations are provided in the Sources section.
3. **Factual vs. Speculative Content**: Projections and forecasts have been distinguished from verified facts where possible.
4. **Information Gaps**: Areas where data is incomplete or unclear have been highlighted.

These quality considerations have been incorporated into the analysis and recommendations in the main report.
`, researchedAt.Format("2006-01-02"))
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown source"
	}
	return s
}

// AutoTuningSection collects the tuning decisions from the reasoning log.
// It returns "" when there are none.
func AutoTuningSection(thoughts []string) string {
	var entries []string
	for _, t := range thoughts {
		if strings.Contains(t, "Auto-tuned parameters") || strings.Contains(t, "Auto-adjusted parameters") {
			entries = append(entries, t)
		}
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Auto-Tuning Decisions\n\n")
	b.WriteString("The research process used automatic parameter tuning based on question complexity and information quality:\n\n")
	for _, e := range entries {
		stamp, content, ok := strings.Cut(e, "] ")
		if ok {
			fmt.Fprintf(&b, "- **%s**: %s\n", strings.Trim(stamp, "[]"), content)
		} else {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	b.WriteString(`
### How Auto-Tuning Works

The research system automatically tunes its parameters by:

1. **Initial Assessment**: Analyzing question complexity to determine initial depth and breadth
2. **Dynamic Adjustment**: Adjusting parameters during research based on information quality
3. **Resource Optimization**: Focusing more effort on complex questions and less on simple ones
4. **Time Management**: Working within specified time constraints when provided

This approach helps optimize the research process to match the specific requirements of each query.
`)
	return b.String()
}

// Combined joins every section into one document
func Combined(query string, r Reports) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n%s\n\n%s\n\n%s\n\n", query, r.Final, r.DataQuality, r.Sources)
	if r.AutoTuning != "" {
		fmt.Fprintf(&b, "\n%s\n", r.AutoTuning)
	}
	fmt.Fprintf(&b, "\n---\n\n# Research Process: Chain of Thought Analysis\n\n%s\n", r.ChainOfThought)
	return b.String()
}
