package metric

import (
	"context"
	"fmt"

	"github.com/haricheung/repogauge/internal/forge"
	"github.com/haricheung/repogauge/internal/types"
)

// assumedClosureRate is applied when the closed-issue listing is too large to
// page (422): the open count is assumed to be 30% of an unknown total that was
// closed at a 70% rate.
const assumedClosureRate = 0.7

// IssueManagement scores how well the issue tracker is worked down.
type IssueManagement struct{}

func (IssueManagement) Name() string    { return "Issue Management" }
func (IssueManagement) Weight() float64 { return 0.20 }

// Calculate scores the closed-vs-open issue ratio with a backlog penalty.
//
// Expectations:
//   - has_issues=false → score 50, details mention the tracker is disabled
//   - open+closed = 0 → score 80 (new or unused tracker)
//   - A 422 from the closed-issue listing is trapped and the closed count
//     estimated as max(0, int(open/0.3 × 0.7)); other forge errors propagate
//   - Backlog multiplier: open > 100 → ×0.8, open > 50 → ×0.9
func (im IssueManagement) Calculate(ctx context.Context, f Forge, owner, name string) (types.MetricResult, error) {
	desc := "Issue triage and closure discipline"
	repo, err := f.GetRepository(ctx, owner, name)
	if err != nil {
		return types.MetricResult{}, err
	}
	if !repo.HasIssues {
		return types.NewMetricResult(im.Name(), 50, im.Weight(), desc, "issue tracking disabled")
	}

	open := repo.OpenIssues
	closed, err := f.GetClosedIssuesCount(ctx, owner, name)
	estimated := false
	if err != nil {
		if !forge.IsTooLarge(err) {
			return types.MetricResult{}, err
		}
		// Dataset too large to page: assume a 70% closure rate over an
		// unknown total.
		closed = int(float64(open) / 0.3 * assumedClosureRate)
		if closed < 0 {
			closed = 0
		}
		estimated = true
	}

	total := open + closed
	if total == 0 {
		return types.NewMetricResult(im.Name(), 80, im.Weight(), desc, "no issues recorded yet")
	}
	rate := 100 * float64(closed) / float64(total)
	score := issueScore(rate, open)

	details := fmt.Sprintf("%d open, %d closed (%.1f%% closure rate)", open, closed, rate)
	if estimated {
		details += ", closed count estimated"
	}
	return types.NewMetricResult(im.Name(), score, im.Weight(), desc, details)
}

// issueScore maps a closure rate (percent) and open backlog to a score.
//
// Expectations:
//   - rate ≥ 80 → 100; ≥ 60 → 85; ≥ 40 → 70; ≥ 20 → 50; else 30
//   - open > 100 multiplies by 0.8; open > 50 by 0.9
//   - Result is clamped to 100
func issueScore(rate float64, open int) float64 {
	var base float64
	switch {
	case rate >= 80:
		base = 100
	case rate >= 60:
		base = 85
	case rate >= 40:
		base = 70
	case rate >= 20:
		base = 50
	default:
		base = 30
	}
	switch {
	case open > 100:
		base *= 0.8
	case open > 50:
		base *= 0.9
	}
	if base > 100 {
		base = 100
	}
	return base
}
