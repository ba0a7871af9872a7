// Package analyzer runs the six metric calculators against one repository and
// assembles the weighted report. Calculators run sequentially: forge latency
// dominates wall clock either way, and sequential calls keep rate-limit
// accounting trivial.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/haricheung/repogauge/internal/metric"
	"github.com/haricheung/repogauge/internal/tracelog"
	"github.com/haricheung/repogauge/internal/types"
)

// weakThreshold marks a metric as worth calling out in the recommendation.
const weakThreshold = 60

// Analyzer orchestrates one full analysis.
type Analyzer struct {
	forge metric.Forge
	calcs []metric.Calculator
}

// New creates an Analyzer over the standard calculator set.
func New(f metric.Forge) *Analyzer {
	return &Analyzer{forge: f, calcs: metric.All()}
}

// Analyze runs every calculator in order and returns the finished report.
// The first calculator error aborts the run; there are no partial reports.
// tr may be nil.
//
// Expectations:
//   - Metrics appear in calculator order
//   - A calculator error aborts the run, wrapped with the metric name
//   - The report's recommendation names every metric scoring below 60
func (a *Analyzer) Analyze(ctx context.Context, owner, name string, tr *tracelog.Trace) (types.Report, error) {
	results := make([]types.MetricResult, 0, len(a.calcs))
	for _, calc := range a.calcs {
		res, err := calc.Calculate(ctx, a.forge, owner, name)
		if err != nil {
			return types.Report{}, fmt.Errorf("metric %q: %w", calc.Name(), err)
		}
		tr.Metric(res.Name, res.Score, res.Weight)
		results = append(results, res)
	}

	var weighted, weights float64
	for _, m := range results {
		weighted += m.WeightedScore()
		weights += m.Weight
	}
	overall := 0.0
	if weights > 0 {
		overall = weighted / weights
	}

	report := types.NewReport(owner+"/"+name, results, recommendation(overall, results))
	return report, nil
}

// recommendation builds the report's advice line: a lead sentence keyed by the
// overall score band, then either praise or the list of weak metrics in
// report order.
//
// Expectations:
//   - ≥90 → "Excellent", ≥75 → "Good", ≥60 → "Fair", else "Needs improvement"
//   - No metric below 60 → ends with "Keep up the good work!"
//   - Otherwise ends with "Focus on improving: <names>."
func recommendation(overall float64, metrics []types.MetricResult) string {
	var lead string
	switch {
	case overall >= 90:
		lead = "Excellent repository health!"
	case overall >= 75:
		lead = "Good repository health."
	case overall >= 60:
		lead = "Fair repository health."
	default:
		lead = "Needs improvement."
	}

	var weak []string
	for _, m := range metrics {
		if m.Score < weakThreshold {
			weak = append(weak, m.Name)
		}
	}
	if len(weak) == 0 {
		return lead + " Keep up the good work!"
	}
	return lead + " Focus on improving: " + strings.Join(weak, ", ") + "."
}
