package metric

import (
	"context"
	"fmt"

	"github.com/haricheung/repogauge/internal/types"
)

// Community scores engagement from stars, forks and contributors.
type Community struct{}

func (Community) Name() string    { return "Community" }
func (Community) Weight() float64 { return 0.15 }

// Calculate blends three capped sub-scores: stars/10, forks/5 and
// contributors×10, weighted 0.4 / 0.3 / 0.3.
//
// Expectations:
//   - Each sub-score is capped at 100 before weighting
//   - 1000 stars, 200 forks, 25 contributors → 100
func (cm Community) Calculate(ctx context.Context, f Forge, owner, name string) (types.MetricResult, error) {
	repo, err := f.GetRepository(ctx, owner, name)
	if err != nil {
		return types.MetricResult{}, err
	}
	contributors, err := f.GetContributorCount(ctx, owner, name)
	if err != nil {
		return types.MetricResult{}, err
	}

	starScore := cap100(float64(repo.Stars) / 10)
	forkScore := cap100(float64(repo.Forks) / 5)
	contribScore := cap100(float64(contributors) * 10)
	score := 0.4*starScore + 0.3*forkScore + 0.3*contribScore

	details := fmt.Sprintf("%d stars, %d forks, %d contributors", repo.Stars, repo.Forks, contributors)
	return types.NewMetricResult(cm.Name(), score, cm.Weight(),
		"Community engagement around the repository", details)
}

func cap100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
