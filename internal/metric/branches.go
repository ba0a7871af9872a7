package metric

import (
	"context"
	"fmt"

	"github.com/haricheung/repogauge/internal/types"
)

// BranchManagement scores how tidy the branch list is kept. The count is a
// single-page lower bound (cap 100) from the forge client.
type BranchManagement struct{}

func (BranchManagement) Name() string    { return "Branch Management" }
func (BranchManagement) Weight() float64 { return 0.15 }

// Calculate maps the branch count to a tiered score.
func (bm BranchManagement) Calculate(ctx context.Context, f Forge, owner, name string) (types.MetricResult, error) {
	branches, err := f.GetBranchCount(ctx, owner, name)
	if err != nil {
		return types.MetricResult{}, err
	}
	details := fmt.Sprintf("%d branch(es)", branches)
	return types.NewMetricResult(bm.Name(), branchScore(branches), bm.Weight(),
		"Branch hygiene and housekeeping", details)
}

// branchScore maps a branch count to a tiered score.
//
// Expectations:
//   - b ≤ 3 → 100; ≤ 5 → 95; ≤ 10 → 85; ≤ 20 → 70; ≤ 50 → 50; else 30
func branchScore(b int) float64 {
	switch {
	case b <= 3:
		return 100
	case b <= 5:
		return 95
	case b <= 10:
		return 85
	case b <= 20:
		return 70
	case b <= 50:
		return 50
	default:
		return 30
	}
}
