// Package types holds the immutable value records shared by every stage of the
// analysis pipeline: forge snapshots, metric results, the final report, and the
// optional LLM review. Values are produced once at construction and never
// mutated afterwards, so they are safe to share across goroutines.
package types

import (
	"fmt"
	"time"
)

// Rating is the categorical label derived from a report's overall score.
type Rating string

const (
	RatingExcellent Rating = "EXCELLENT"
	RatingGood      Rating = "GOOD"
	RatingFair      Rating = "FAIR"
	RatingPoor      Rating = "POOR"
	RatingCritical  Rating = "CRITICAL"
)

// RatingFor maps an overall score to its rating band. Lower bounds are
// inclusive, upper bounds exclusive.
//
// Expectations:
//   - score ≥ 90 → EXCELLENT
//   - 75 ≤ score < 90 → GOOD
//   - 60 ≤ score < 75 → FAIR
//   - 40 ≤ score < 60 → POOR
//   - score < 40 → CRITICAL
func RatingFor(score float64) Rating {
	switch {
	case score >= 90:
		return RatingExcellent
	case score >= 75:
		return RatingGood
	case score >= 60:
		return RatingFair
	case score >= 40:
		return RatingPoor
	default:
		return RatingCritical
	}
}

// Repository is an immutable snapshot of forge metadata for one repository.
// Identity is (Owner, Name); everything else is descriptive.
type Repository struct {
	Owner         string
	Name          string
	Description   string
	Stars         int
	Forks         int
	OpenIssues    int
	LastUpdated   time.Time
	HasWiki       bool
	HasIssues     bool
	DefaultBranch string
	Size          int
}

// FullName returns the canonical "owner/name" form.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Same reports whether two snapshots describe the same repository.
func (r Repository) Same(other Repository) bool {
	return r.Owner == other.Owner && r.Name == other.Name
}

// Commit is one commit from the forge's list endpoint. Identity is SHA.
type Commit struct {
	SHA     string
	Message string
	Author  string
	Date    time.Time
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// MetricResult is the scored outcome of one calculator.
//
// Expectations:
//   - NewMetricResult rejects an empty name
//   - NewMetricResult rejects score outside [0,100]
//   - NewMetricResult rejects weight outside [0,1]
//   - WeightedScore returns score × weight
type MetricResult struct {
	Name        string
	Score       float64
	Weight      float64
	Description string
	Details     string
}

// NewMetricResult validates and constructs a MetricResult. A validation
// failure here indicates a calculator bug, not bad remote data.
func NewMetricResult(name string, score, weight float64, description, details string) (MetricResult, error) {
	if name == "" {
		return MetricResult{}, fmt.Errorf("types: metric result requires a name")
	}
	if score < 0 || score > 100 {
		return MetricResult{}, fmt.Errorf("types: metric %q: score %.2f outside [0,100]", name, score)
	}
	if weight < 0 || weight > 1 {
		return MetricResult{}, fmt.Errorf("types: metric %q: weight %.2f outside [0,1]", name, weight)
	}
	return MetricResult{
		Name:        name,
		Score:       score,
		Weight:      weight,
		Description: description,
		Details:     details,
	}, nil
}

// WeightedScore returns the metric's contribution to the overall score.
func (m MetricResult) WeightedScore() float64 {
	return m.Score * m.Weight
}

// Report is the final analysis result for one repository. Metrics keep the
// calculator execution order. Built once by the orchestrator; read-only after.
type Report struct {
	RepositoryFullName string
	OverallScore       float64
	Rating             Rating
	Metrics            []MetricResult
	Recommendation     string
	LLM                *LLMAnalysis
}

// NewReport assembles a report, deriving the overall score as the
// weight-normalised sum of the metric scores and the rating from the score.
//
// Expectations:
//   - OverallScore = Σ(score·weight) / Σ(weight) when Σ(weight) > 0
//   - OverallScore = 0 when the metric list is empty or all weights are 0
//   - Metrics preserve the order they were passed in
//   - Rating matches RatingFor(OverallScore)
func NewReport(fullName string, metrics []MetricResult, recommendation string) Report {
	var weighted, weights float64
	for _, m := range metrics {
		weighted += m.WeightedScore()
		weights += m.Weight
	}
	overall := 0.0
	if weights > 0 {
		overall = weighted / weights
	}
	return Report{
		RepositoryFullName: fullName,
		OverallScore:       overall,
		Rating:             RatingFor(overall),
		Metrics:            append([]MetricResult(nil), metrics...),
		Recommendation:     recommendation,
	}
}

// Metric returns the result with the given name, if present.
func (r Report) Metric(name string) (MetricResult, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return MetricResult{}, false
}

// WithLLMAnalysis returns a copy of the report carrying the LLM review.
// The receiver is left untouched.
func (r Report) WithLLMAnalysis(a LLMAnalysis) Report {
	r.LLM = &a
	return r
}

// ReadmeAnalysis is the LLM's review of the README. Subscores are 0–10.
type ReadmeAnalysis struct {
	Clarity      int      `json:"clarity"`
	Completeness int      `json:"completeness"`
	Newcomer     int      `json:"newcomer_friendliness"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// CommitAnalysis is the LLM's review of recent commit messages. Subscores are 0–10.
type CommitAnalysis struct {
	Clarity         int      `json:"clarity"`
	Consistency     int      `json:"consistency"`
	Informativeness int      `json:"informativeness"`
	Patterns        []string `json:"patterns"`
	Suggestions     []string `json:"suggestions"`
}

// CommunityAnalysis is the LLM's review of community signals. Subscores are 0–10.
type CommunityAnalysis struct {
	Responsiveness int      `json:"responsiveness"`
	Helpfulness    int      `json:"helpfulness"`
	Tone           int      `json:"tone"`
	Observations   []string `json:"observations"`
	Suggestions    []string `json:"suggestions"`
}

// AIRecommendation is one improvement suggestion derived from the LLM review.
// Impact is 1–10; higher means more urgent.
type AIRecommendation struct {
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Impact     int    `json:"impact"`
}

// LLMAnalysis aggregates the three LLM sub-reports. Recommendations are
// ordered by impact, descending. Confidence is a percentage in [25,95].
// TokensUsed is the total across the three prompts; 0 when every prompt
// fell back.
type LLMAnalysis struct {
	Readme          ReadmeAnalysis
	Commits         CommitAnalysis
	Community       CommunityAnalysis
	Recommendations []AIRecommendation
	Confidence      float64
	TokensUsed      int
}
