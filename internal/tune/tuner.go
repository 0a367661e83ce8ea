// Package tune sizes the research tree from question complexity and adjusts it
// as information quality and time budget evolve.
package tune

import (
	"math"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/deepresearch/internal/model"
)

const (
	minBreadth = 2
	minDepth   = 1
)

var entityPattern = regexp.MustCompile(`[A-Z][a-z]+ [A-Z][a-z]+|[A-Z][a-z]+\.[A-Z][a-z]+|[A-Z][A-Z]+|[A-Z][a-z]+`)

var complexityKeywords = []string{
	"compare", "contrast", "analyze", "evaluate",
	"synthesize", "implications", "impact", "effects",
	"trend", "development", "causes", "relationship",
}

// Metrics describes how complex a research question looks
type Metrics struct {
	Score        float64 `json:"complexity_score"`
	EntityCount  int     `json:"entity_count"`
	AspectCount  int     `json:"aspect_count"`
	KeywordCount int     `json:"complexity_keyword_count"`
}

// Tuner derives and adjusts depth and breadth
type Tuner struct {
	maxDepth   int
	maxBreadth int
	budget     time.Duration

	mu      sync.Mutex
	started time.Time
	now     func() time.Time
}

// New creates a Tuner bounded by maxDepth and maxBreadth. A zero budget disables time pressure.
func New(maxDepth, maxBreadth int, budget time.Duration) (*Tuner, error) {
	if maxDepth < minDepth {
		return nil, &model.ConfigurationError{Field: "max_depth", Reason: "must be at least 1"}
	}
	if maxBreadth < minBreadth {
		return nil, &model.ConfigurationError{Field: "max_breadth", Reason: "must be at least 2"}
	}
	return &Tuner{
		maxDepth:   maxDepth,
		maxBreadth: maxBreadth,
		budget:     budget,
		now:        time.Now,
	}, nil
}

// SetClock replaces the clock used for time budget accounting
func (t *Tuner) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now != nil {
		t.now = now
	}
}

// AnalyzeComplexity scores a question in [0, 1]
func (t *Tuner) AnalyzeComplexity(query string) Metrics {
	entities := len(entityPattern.FindAllString(query, -1))
	aspects := strings.Count(query, ",") + strings.Count(query, ";") + strings.Count(query, "and")

	lower := strings.ToLower(query)
	keywords := 0
	for _, kw := range complexityKeywords {
		if strings.Contains(lower, kw) {
			keywords++
		}
	}

	raw := float64(entities)*0.5 + float64(aspects)*0.3 + float64(keywords)*0.7
	return Metrics{
		Score:        math.Min(1, raw/10),
		EntityCount:  entities,
		AspectCount:  aspects,
		KeywordCount: keywords,
	}
}

// DetermineInitialParameters maps a complexity score onto (depth, breadth)
func (t *Tuner) DetermineInitialParameters(m Metrics) (depth, breadth int) {
	d := int(math.RoundToEven(1 + m.Score*float64(t.maxDepth-1)))
	b := int(math.RoundToEven(2 + m.Score*float64(t.maxBreadth-2)))
	return t.clamp(d, b)
}

// AdjustParameters widens the tree when information is poor, narrows it when it is
// good, and shrinks it further once most of the time budget is spent
func (t *Tuner) AdjustParameters(depth, breadth int, quality, timeUsed float64) (int, int) {
	var dd, db int
	switch {
	case quality < 0.3:
		dd, db = 1, 2
	case quality > 0.7:
		dd, db = -1, -1
	default:
		dd, db = 0, 1
	}
	if timeUsed > 0.7 {
		dd--
		db -= 2
	}
	return t.clamp(depth+dd, breadth+db)
}

// EstimateInfoQuality scores accumulated learnings in [0, 1] from their length,
// contradiction rate and lexical diversity
func (t *Tuner) EstimateInfoQuality(learnings []string, contradictions int) float64 {
	if len(learnings) == 0 {
		return 0
	}

	total := 0
	for _, l := range learnings {
		total += utf8.RuneCountInString(l)
	}
	avg := float64(total) / float64(len(learnings))
	lengthScore := math.Min(1, avg/300)

	ratio := float64(contradictions) / float64(max(1, len(learnings)))
	contradictionScore := math.Max(0, 1-ratio*2)

	words := strings.Fields(strings.Join(learnings, " "))
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	diversity := math.Min(1, float64(len(unique))/float64(max(1, len(words)))*3)

	return lengthScore*0.3 + contradictionScore*0.3 + diversity*0.4
}

// Start records the run start time. Later calls are ignored.
func (t *Tuner) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started.IsZero() {
		t.started = t.now()
	}
}

// TimeUsageFraction returns the share of the time budget consumed, capped at 1.
// It is 0 without a budget or before Start.
func (t *Tuner) TimeUsageFraction() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.budget <= 0 || t.started.IsZero() {
		return 0
	}
	elapsed := t.now().Sub(t.started)
	return math.Min(1, elapsed.Seconds()/t.budget.Seconds())
}

func (t *Tuner) clamp(depth, breadth int) (int, int) {
	depth = max(minDepth, min(t.maxDepth, depth))
	breadth = max(minBreadth, min(t.maxBreadth, breadth))
	return depth, breadth
}
