package metric

import (
	"context"
	"fmt"
	"time"

	"github.com/haricheung/repogauge/internal/types"
)

const activitySample = 10

// Activity scores how recently the repository last saw a commit.
type Activity struct {
	// Now is the clock used to compute commit age; nil means time.Now.
	Now func() time.Time
}

func (Activity) Name() string    { return "Activity" }
func (Activity) Weight() float64 { return 0.15 }

// Calculate fetches the 10 most recent commits and scores the age in whole
// days of the newest one.
//
// Expectations:
//   - No commits → score 0
//   - Age is floored to whole days before the tier lookup
func (a Activity) Calculate(ctx context.Context, f Forge, owner, name string) (types.MetricResult, error) {
	commits, err := f.GetRecentCommits(ctx, owner, name, activitySample)
	if err != nil {
		return types.MetricResult{}, err
	}
	desc := "Recency of development activity"
	if len(commits) == 0 {
		return types.NewMetricResult(a.Name(), 0, a.Weight(), desc, "no commits found")
	}
	latest := commits[0].Date
	for _, c := range commits[1:] {
		if c.Date.After(latest) {
			latest = c.Date
		}
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	days := int(now().UTC().Sub(latest.UTC()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	details := fmt.Sprintf("last commit %d day(s) ago", days)
	return types.NewMetricResult(a.Name(), activityScore(days), a.Weight(), desc, details)
}

// activityScore maps commit age in days to a tiered score.
//
// Expectations:
//   - d ≤ 7 → 100; d ≤ 30 → 90; d ≤ 90 → 70; d ≤ 180 → 50; d ≤ 365 → 30; else 10
func activityScore(days int) float64 {
	switch {
	case days <= 7:
		return 100
	case days <= 30:
		return 90
	case days <= 90:
		return 70
	case days <= 180:
		return 50
	case days <= 365:
		return 30
	default:
		return 10
	}
}
