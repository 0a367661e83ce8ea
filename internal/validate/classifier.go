package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ContentType is the coarse epistemic class of a piece of text
type ContentType string

const (
	ContentFactual     ContentType = "factual"
	ContentSpeculative ContentType = "speculative"
	ContentOpinion     ContentType = "opinion"
)

// ContentValidator classifies scraped content and flags data quality problems
type ContentValidator interface {
	ClassifyContentType(text string) ContentType
	ValidateTemporalConsistency(text string) (bool, string)
	ValidateNumericalReasonableness(text string) (bool, string)
}

const monthAlternation = "(january|february|march|april|may|june|july|august|september|october|november|december)"

var (
	speculativePatterns = compileAll(
		`could be`, `might be`, `potentially`,
		`possibly`, `projected`, `forecasted`,
		`expected to`, `anticipated`, `estimated`,
		`by 20\d\d`, `in the future`,
	)
	opinionPatterns = compileAll(
		`believe`, `feel`, `think`,
		`suggest`, `indicate`, `likely`,
		`recommend`, `advocate`, `argue`,
	)

	upcomingPattern  = regexp.MustCompile(`(?i)upcoming.{0,50}` + monthAlternation + `.{0,10}(20\d\d)`)
	scheduledPattern = regexp.MustCompile(`(?i)scheduled.*?for.*?` + monthAlternation + `.*?(20\d\d)`)

	longTermProjectionPattern = regexp.MustCompile(`(?i)(by|in|reach|hitting).{0,20}(20[3-9]\d).{0,50}\$?([0-9,]+\.[0-9]+)`)
)

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Classifier implements ContentValidator with phrase heuristics against a fixed reference date
type Classifier struct {
	reference time.Time
}

// NewClassifier creates a classifier. A zero reference date means now.
func NewClassifier(reference time.Time) *Classifier {
	if reference.IsZero() {
		reference = time.Now()
	}
	return &Classifier{reference: reference}
}

// ReferenceDate returns the date temporal checks are evaluated against
func (c *Classifier) ReferenceDate() time.Time {
	return c.reference
}

// ClassifyContentType returns speculative if any hedging phrase appears, otherwise
// opinion if any stance phrase appears, otherwise factual
func (c *Classifier) ClassifyContentType(text string) ContentType {
	for _, re := range speculativePatterns {
		if re.MatchString(text) {
			return ContentSpeculative
		}
	}
	for _, re := range opinionPatterns {
		if re.MatchString(text) {
			return ContentOpinion
		}
	}
	return ContentFactual
}

// ValidateTemporalConsistency flags events described as upcoming or scheduled whose
// month has already started relative to the reference date
func (c *Classifier) ValidateTemporalConsistency(text string) (bool, string) {
	for _, m := range upcomingPattern.FindAllStringSubmatch(text, -1) {
		if c.isPast(m[1], m[2]) {
			return false, fmt.Sprintf("Temporal inconsistency: '%s' refers to a past event as upcoming", m[0])
		}
	}
	for _, m := range scheduledPattern.FindAllStringSubmatch(text, -1) {
		if c.isPast(m[1], m[2]) {
			return false, fmt.Sprintf("Temporal inconsistency: '%s' refers to a scheduled event that should have already occurred", m[0])
		}
	}
	return true, "No temporal inconsistencies detected"
}

// ValidateNumericalReasonableness flags decimal-precision figures attached to
// forecasts more than ten years past the reference year
func (c *Classifier) ValidateNumericalReasonableness(text string) (bool, string) {
	for _, m := range longTermProjectionPattern.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		value := strings.ReplaceAll(m[3], ",", "")
		yearsAhead := year - c.reference.Year()
		if yearsAhead > 10 && strings.Contains(value, ".") {
			return false, fmt.Sprintf("Unreasonable precision: '%s' has decimal precision for a %d-year forecast", m[0], yearsAhead)
		}
	}
	return true, "No unreasonable numerical projections detected"
}

func (c *Classifier) isPast(month, year string) bool {
	mon, ok := monthNumbers[strings.ToLower(month)]
	if !ok {
		return false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return false
	}
	event := time.Date(y, mon, 1, 0, 0, 0, 0, c.reference.Location())
	return event.Before(c.reference)
}
