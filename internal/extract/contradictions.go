// Package extract turns raw research material into structured signals: readable
// page text for scraping and contradiction findings between learnings.
package extract

import (
	"regexp"
	"slices"
	"strings"
)

// ContradictionRule decides whether two learnings about the same topic family disagree.
// Texts passed to Relevant and Conflicts are already lower-cased.
type ContradictionRule interface {
	Topic() string
	Relevant(text string) bool
	Conflicts(newText, existingText string) bool
}

// Finding is a detected disagreement between a new learning and a stored one
type Finding struct {
	Topic    string
	Existing string
	New      string
}

// Detector runs a set of contradiction rules over learnings
type Detector struct {
	rules []ContradictionRule
}

// NewDetector creates a detector. With no rules the built-in families are used.
func NewDetector(rules ...ContradictionRule) *Detector {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Detector{rules: rules}
}

// DefaultRules returns the performance, event date and layoff timeline families
func DefaultRules() []ContradictionRule {
	return []ContradictionRule{
		PerformanceRule{},
		EventDateRule{},
		LayoffRule{},
	}
}

// Detect compares newLearning with every existing learning for each rule in order.
// One finding is produced per rule and conflicting existing learning.
func (d *Detector) Detect(newLearning string, existing []string) []Finding {
	if len(existing) == 0 {
		return nil
	}

	newLower := strings.ToLower(newLearning)
	var findings []Finding
	for _, rule := range d.rules {
		if !rule.Relevant(newLower) {
			continue
		}
		for _, old := range existing {
			oldLower := strings.ToLower(old)
			if !rule.Relevant(oldLower) {
				continue
			}
			if rule.Conflicts(newLower, oldLower) {
				findings = append(findings, Finding{Topic: rule.Topic(), Existing: old, New: newLearning})
			}
		}
	}
	return findings
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// opposed reports whether one side has the first polarity and the other the second
func opposed(a, b string, first, second []string) bool {
	aFirst, aSecond := containsAny(a, first), containsAny(a, second)
	bFirst, bSecond := containsAny(b, first), containsAny(b, second)
	return (aFirst && bSecond) || (aSecond && bFirst)
}

var (
	performanceKeywords = []string{"performance", "growth", "revenue", "sales", "profit", "loss"}
	positiveTerms       = []string{"growth", "increase", "positive", "strong", "success"}
	negativeTerms       = []string{"decline", "decrease", "negative", "weak", "failure"}

	eventKeywords = []string{"scheduled", "upcoming", "announced", "launched"}
	monthYear     = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december).{0,10}(20\d\d)`)

	layoffKeywords = []string{"layoff", "job cut", "firing", "downsizing"}
	planTerms      = []string{"plan", "will", "future", "expected", "upcoming"}
	pastTerms      = []string{"completed", "announced", "executed", "implemented"}
)

// PerformanceRule flags opposite sentiment about business performance
type PerformanceRule struct{}

func (PerformanceRule) Topic() string { return "Performance" }

func (PerformanceRule) Relevant(text string) bool { return containsAny(text, performanceKeywords) }

func (PerformanceRule) Conflicts(newText, existingText string) bool {
	return opposed(newText, existingText, positiveTerms, negativeTerms)
}

// EventDateRule flags announcements that cite different month-year dates
type EventDateRule struct{}

func (EventDateRule) Topic() string { return "Event Dates" }

func (EventDateRule) Relevant(text string) bool { return containsAny(text, eventKeywords) }

func (EventDateRule) Conflicts(newText, existingText string) bool {
	a, b := monthYearPairs(newText), monthYearPairs(existingText)
	return len(a) > 0 && len(b) > 0 && !slices.Equal(a, b)
}

func monthYearPairs(text string) []string {
	matches := monthYear.FindAllStringSubmatch(text, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1] + " " + m[2]
	}
	return out
}

// LayoffRule flags workforce reductions described as planned in one learning and done in another
type LayoffRule struct{}

func (LayoffRule) Topic() string { return "Layoff Timeline" }

func (LayoffRule) Relevant(text string) bool { return containsAny(text, layoffKeywords) }

func (LayoffRule) Conflicts(newText, existingText string) bool {
	return opposed(newText, existingText, planTerms, pastTerms)
}
