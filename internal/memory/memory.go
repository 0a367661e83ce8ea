// Package memory holds the accumulated state of a single research run.
package memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/model"
)

// ErrUnknownInfoKind is returned when an information map update names an unknown list
var ErrUnknownInfoKind = errors.New("unknown information kind")

const thoughtLayout = "2006-01-02 15:04:05"

// Memory accumulates learnings, sources, reasoning and quality signals for one run.
// All methods are safe for concurrent use so observers can read while the engine writes.
type Memory struct {
	mu sync.RWMutex

	learnings      []string
	learningSet    map[string]struct{}
	urls           []string
	urlSet         map[string]struct{}
	thoughts       []string
	contradictions []model.Contradiction
	evaluations    []model.SourceEvaluation
	infoMap        map[string]model.InformationEntry

	currentDate time.Time
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Memory
type Option func(*Memory)

// WithClock overrides the wall clock used for thought timestamps and the current date
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates an empty Memory. The current date is fixed at construction.
func New(opts ...Option) *Memory {
	m := &Memory{
		learnings:      []string{},
		learningSet:    make(map[string]struct{}),
		urls:           []string{},
		urlSet:         make(map[string]struct{}),
		thoughts:       []string{},
		contradictions: []model.Contradiction{},
		evaluations:    []model.SourceEvaluation{},
		infoMap:        make(map[string]model.InformationEntry),
		now:            time.Now,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.currentDate = m.now()
	return m
}

// CurrentDate returns the date captured when the memory was created
func (m *Memory) CurrentDate() time.Time {
	return m.currentDate
}

// AddLearning stores a learning unless an identical one exists. Returns true if it was new.
func (m *Memory) AddLearning(learning string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.learningSet[learning]; ok {
		return false
	}
	m.learningSet[learning] = struct{}{}
	m.learnings = append(m.learnings, learning)
	m.logger.Debug("learning added", zap.Int("total", len(m.learnings)))
	return true
}

// AddLearnings stores each learning in order and returns the ones that were new
func (m *Memory) AddLearnings(learnings []string) []string {
	added := make([]string, 0, len(learnings))
	for _, l := range learnings {
		if m.AddLearning(l) {
			added = append(added, l)
		}
	}
	return added
}

// AddURL records a visited source unless already recorded
func (m *Memory) AddURL(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.urlSet[url]; ok {
		return false
	}
	m.urlSet[url] = struct{}{}
	m.urls = append(m.urls, url)
	return true
}

// AddURLs records each URL in order
func (m *Memory) AddURLs(urls []string) {
	for _, u := range urls {
		m.AddURL(u)
	}
}

// AddThought appends a timestamped reasoning step
func (m *Memory) AddThought(thought string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addThoughtLocked(thought)
}

func (m *Memory) addThoughtLocked(thought string) {
	entry := fmt.Sprintf("[%s] %s", m.now().Format(thoughtLayout), thought)
	m.thoughts = append(m.thoughts, entry)
	m.logger.Debug("thought", zap.String("text", thought))
}

// AddContradiction records a conflict between two claims and notes it in the chain of thought
func (m *Memory) AddContradiction(topic, claim1, claim2, source1, source2 string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contradictions = append(m.contradictions, model.Contradiction{
		Topic:     topic,
		Claim1:    claim1,
		Claim2:    claim2,
		Source1:   source1,
		Source2:   source2,
		Timestamp: m.now(),
	})
	m.addThoughtLocked(fmt.Sprintf("Contradiction detected in topic '%s': %s vs %s", topic, claim1, claim2))
	m.logger.Info("contradiction detected", zap.String("topic", topic))
}

// AddSourceEvaluation appends a source assessment
func (m *Memory) AddSourceEvaluation(eval model.SourceEvaluation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = append(m.evaluations, eval)
}

// UpdateInformationMap appends items to one list of a topic, creating the topic on first use
func (m *Memory) UpdateInformationMap(topic string, kind model.InfoKind, items ...string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownInfoKind, kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.infoMap[topic]
	if !ok {
		entry = model.NewInformationEntry()
	}

	switch kind {
	case model.InfoConsensus:
		entry.Consensus = append(entry.Consensus, items...)
	case model.InfoContradictions:
		entry.Contradictions = append(entry.Contradictions, items...)
	case model.InfoGaps:
		entry.Gaps = append(entry.Gaps, items...)
	}
	m.infoMap[topic] = entry
	return nil
}

// Learnings returns a copy of the stored learnings in insertion order
func (m *Memory) Learnings() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.learnings...)
}

// VisitedURLs returns a copy of the visited sources in insertion order
func (m *Memory) VisitedURLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.urls...)
}

// ChainOfThought returns a copy of the reasoning log
func (m *Memory) ChainOfThought() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.thoughts...)
}

// Contradictions returns a copy of the recorded contradictions
func (m *Memory) Contradictions() []model.Contradiction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Contradiction{}, m.contradictions...)
}

// ContradictionCount returns the number of recorded contradictions
func (m *Memory) ContradictionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contradictions)
}

// SourceEvaluations returns a copy of the source assessments
func (m *Memory) SourceEvaluations() []model.SourceEvaluation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.SourceEvaluation{}, m.evaluations...)
}

// InformationMap returns a deep copy of the topic map
func (m *Memory) InformationMap() map[string]model.InformationEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]model.InformationEntry, len(m.infoMap))
	for topic, e := range m.infoMap {
		out[topic] = model.InformationEntry{
			Consensus:      append([]string{}, e.Consensus...),
			Contradictions: append([]string{}, e.Contradictions...),
			Gaps:           append([]string{}, e.Gaps...),
		}
	}
	return out
}

// Fill copies the accumulated state into r
func (m *Memory) Fill(r *model.Result) {
	r.Learnings = m.Learnings()
	r.VisitedURLs = m.VisitedURLs()
	r.ChainOfThought = m.ChainOfThought()
	r.InformationMap = m.InformationMap()
	r.Contradictions = m.Contradictions()
	r.SourceEvaluations = m.SourceEvaluations()
}
