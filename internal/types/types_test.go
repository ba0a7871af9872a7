package types

import (
	"math"
	"testing"
	"time"
)

func TestRatingFor_Bands(t *testing.T) {
	// Lower bounds inclusive, upper bounds exclusive.
	cases := []struct {
		score float64
		want  Rating
	}{
		{100, RatingExcellent},
		{90, RatingExcellent},
		{89.99, RatingGood},
		{75, RatingGood},
		{74.99, RatingFair},
		{60, RatingFair},
		{59.99, RatingPoor},
		{40, RatingPoor},
		{39.99, RatingCritical},
		{0, RatingCritical},
	}
	for _, c := range cases {
		if got := RatingFor(c.score); got != c.want {
			t.Errorf("RatingFor(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestNewMetricResult_RejectsEmptyName(t *testing.T) {
	// NewMetricResult rejects an empty name
	if _, err := NewMetricResult("", 50, 0.5, "d", ""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestNewMetricResult_RejectsScoreOutOfRange(t *testing.T) {
	// NewMetricResult rejects score outside [0,100]
	if _, err := NewMetricResult("m", -0.1, 0.5, "d", ""); err == nil {
		t.Error("expected error for score -0.1")
	}
	if _, err := NewMetricResult("m", 100.1, 0.5, "d", ""); err == nil {
		t.Error("expected error for score 100.1")
	}
}

func TestNewMetricResult_RejectsWeightOutOfRange(t *testing.T) {
	// NewMetricResult rejects weight outside [0,1]
	if _, err := NewMetricResult("m", 50, -0.01, "d", ""); err == nil {
		t.Error("expected error for weight -0.01")
	}
	if _, err := NewMetricResult("m", 50, 1.01, "d", ""); err == nil {
		t.Error("expected error for weight 1.01")
	}
}

func TestNewMetricResult_AcceptsBoundaryValues(t *testing.T) {
	for _, c := range []struct{ score, weight float64 }{{0, 0}, {100, 1}} {
		if _, err := NewMetricResult("m", c.score, c.weight, "d", ""); err != nil {
			t.Errorf("NewMetricResult(score=%v, weight=%v): unexpected error %v", c.score, c.weight, err)
		}
	}
}

func TestMetricResult_WeightedScore(t *testing.T) {
	// WeightedScore returns score × weight
	m, err := NewMetricResult("m", 80, 0.25, "d", "")
	if err != nil {
		t.Fatalf("NewMetricResult: %v", err)
	}
	if got := m.WeightedScore(); got != 20 {
		t.Errorf("WeightedScore() = %v, want 20", got)
	}
}

func TestNewReport_OverallIsWeightNormalisedSum(t *testing.T) {
	// OverallScore = Σ(score·weight) / Σ(weight) when Σ(weight) > 0
	m1, _ := NewMetricResult("a", 100, 0.2, "", "")
	m2, _ := NewMetricResult("b", 50, 0.3, "", "")
	r := NewReport("o/r", []MetricResult{m1, m2}, "")
	want := (100*0.2 + 50*0.3) / 0.5
	if math.Abs(r.OverallScore-want) > 1e-9 {
		t.Errorf("OverallScore = %v, want %v", r.OverallScore, want)
	}
}

func TestNewReport_ZeroWeightsGiveZeroScore(t *testing.T) {
	// OverallScore = 0 when the metric list is empty or all weights are 0
	if r := NewReport("o/r", nil, ""); r.OverallScore != 0 {
		t.Errorf("empty metrics: OverallScore = %v, want 0", r.OverallScore)
	}
	m, _ := NewMetricResult("a", 100, 0, "", "")
	if r := NewReport("o/r", []MetricResult{m}, ""); r.OverallScore != 0 {
		t.Errorf("zero weights: OverallScore = %v, want 0", r.OverallScore)
	}
}

func TestNewReport_PreservesMetricOrder(t *testing.T) {
	// Metrics preserve the order they were passed in
	names := []string{"first", "second", "third"}
	var metrics []MetricResult
	for _, n := range names {
		m, _ := NewMetricResult(n, 50, 0.1, "", "")
		metrics = append(metrics, m)
	}
	r := NewReport("o/r", metrics, "")
	for i, n := range names {
		if r.Metrics[i].Name != n {
			t.Errorf("Metrics[%d].Name = %q, want %q", i, r.Metrics[i].Name, n)
		}
	}
}

func TestNewReport_RatingMatchesScore(t *testing.T) {
	// Rating matches RatingFor(OverallScore)
	m, _ := NewMetricResult("a", 80, 1, "", "")
	r := NewReport("o/r", []MetricResult{m}, "")
	if r.Rating != RatingGood {
		t.Errorf("Rating = %v, want %v", r.Rating, RatingGood)
	}
}

func TestReport_WithLLMAnalysisLeavesReceiverUntouched(t *testing.T) {
	m, _ := NewMetricResult("a", 80, 1, "", "")
	r := NewReport("o/r", []MetricResult{m}, "")
	r2 := r.WithLLMAnalysis(LLMAnalysis{Confidence: 50})
	if r.LLM != nil {
		t.Error("original report gained an LLM analysis")
	}
	if r2.LLM == nil || r2.LLM.Confidence != 50 {
		t.Error("copy is missing the LLM analysis")
	}
}

func TestCommit_SubjectIsFirstLine(t *testing.T) {
	c := Commit{SHA: "abc", Message: "feat: add cache\n\nlonger body here"}
	if got := c.Subject(); got != "feat: add cache" {
		t.Errorf("Subject() = %q", got)
	}
	single := Commit{SHA: "def", Message: "single line"}
	if got := single.Subject(); got != "single line" {
		t.Errorf("Subject() = %q", got)
	}
}

func TestRepository_FullNameAndSame(t *testing.T) {
	a := Repository{Owner: "o", Name: "r", Stars: 1, LastUpdated: time.Now()}
	b := Repository{Owner: "o", Name: "r", Stars: 99}
	if a.FullName() != "o/r" {
		t.Errorf("FullName() = %q", a.FullName())
	}
	if !a.Same(b) {
		t.Error("snapshots with equal owner/name should be the same repository")
	}
	if a.Same(Repository{Owner: "o", Name: "other"}) {
		t.Error("different names must not compare as same")
	}
}
