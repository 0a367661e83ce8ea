package model

import (
	"fmt"
	"strings"
	"time"
)

// Contradiction records two learnings that disagree about the same topic
type Contradiction struct {
	Topic     string    `json:"topic"`
	Claim1    string    `json:"claim1"`
	Claim2    string    `json:"claim2"`
	Source1   string    `json:"source1"`
	Source2   string    `json:"source2"`
	Timestamp time.Time `json:"timestamp"`
}

// Rating is a coarse credibility or relevance grade
type Rating string

const (
	RatingHigh       Rating = "high"
	RatingMediumHigh Rating = "medium-high"
	RatingMedium     Rating = "medium"
	RatingLow        Rating = "low"
)

// ParseRating normalizes a rating, rejecting anything outside the fixed set
func ParseRating(s string) (Rating, error) {
	r := Rating(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RatingHigh, RatingMediumHigh, RatingMedium, RatingLow:
		return r, nil
	}
	return "", fmt.Errorf("invalid rating %q (want high, medium-high, medium or low)", s)
}

// SourceEvaluation is the credibility and relevance assessment of one source
type SourceEvaluation struct {
	URL               string   `json:"url"`
	Title             string   `json:"title"`
	CredibilityRating Rating   `json:"credibility_rating"`
	RelevanceRating   Rating   `json:"relevance_rating"`
	Justification     string   `json:"justification"`
	KeyPoints         []string `json:"key_points"`
}

// InfoKind selects a list inside an information map entry
type InfoKind string

const (
	InfoConsensus      InfoKind = "consensus"
	InfoContradictions InfoKind = "contradictions"
	InfoGaps           InfoKind = "gaps"
)

// Valid reports whether k names one of the three known lists
func (k InfoKind) Valid() bool {
	switch k {
	case InfoConsensus, InfoContradictions, InfoGaps:
		return true
	}
	return false
}

// InformationEntry groups what is agreed, disputed and missing for one topic
type InformationEntry struct {
	Consensus      []string `json:"consensus"`
	Contradictions []string `json:"contradictions"`
	Gaps           []string `json:"gaps"`
}

// NewInformationEntry returns an entry with empty, non-nil lists
func NewInformationEntry() InformationEntry {
	return InformationEntry{
		Consensus:      []string{},
		Contradictions: []string{},
		Gaps:           []string{},
	}
}

// ProgressSnapshot is a point-in-time view of a research run
type ProgressSnapshot struct {
	TotalDepth       int     `json:"total_depth"`
	CurrentDepth     int     `json:"current_depth"`
	TotalBreadth     int     `json:"total_breadth"`
	CurrentBreadth   int     `json:"current_breadth"`
	TotalQueries     int     `json:"total_queries"`
	CompletedQueries int     `json:"completed_queries"`
	CurrentQuery     string  `json:"current_query"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
}

// CompletionPercentage returns completed/total as a percentage, 0 before any query is planned
func (p ProgressSnapshot) CompletionPercentage() float64 {
	if p.TotalQueries == 0 {
		return 0
	}
	return float64(p.CompletedQueries) / float64(p.TotalQueries) * 100
}

// Result is the outcome of a research run
type Result struct {
	RunID             string                      `json:"run_id"`
	Query             string                      `json:"query"`
	Breadth           int                         `json:"breadth"`
	Depth             int                         `json:"depth"`
	AutoTuned         bool                        `json:"auto_tuned"`
	StartedAt         time.Time                   `json:"started_at"`
	FinishedAt        time.Time                   `json:"finished_at"`
	Learnings         []string                    `json:"learnings"`
	VisitedURLs       []string                    `json:"visited_urls"`
	ChainOfThought    []string                    `json:"chain_of_thought"`
	InformationMap    map[string]InformationEntry `json:"information_map"`
	Contradictions    []Contradiction             `json:"contradictions"`
	SourceEvaluations []SourceEvaluation          `json:"source_evaluations"`
	Progress          ProgressSnapshot            `json:"progress"`
}

// NewResult returns a result whose collections are all present and empty
func NewResult(query string) Result {
	return Result{
		Query:             query,
		Learnings:         []string{},
		VisitedURLs:       []string{},
		ChainOfThought:    []string{},
		InformationMap:    map[string]InformationEntry{},
		Contradictions:    []Contradiction{},
		SourceEvaluations: []SourceEvaluation{},
	}
}

// QueryOutcome is what executing one generated query produced
type QueryOutcome struct {
	Success           bool     `json:"success"`
	Reason            string   `json:"reason,omitempty"`
	NewLearnings      []string `json:"new_learnings"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
}
