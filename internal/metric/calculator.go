// Package metric implements the six maintainability signals. Each calculator
// consumes the forge read surface it needs and produces one validated
// MetricResult; the orchestrator runs them in the fixed order returned by All.
package metric

import (
	"context"

	"github.com/haricheung/repogauge/internal/types"
)

// Forge is the read surface calculators need. *forge.Client satisfies it;
// tests substitute a fake.
type Forge interface {
	GetRepository(ctx context.Context, owner, name string) (types.Repository, error)
	GetRecentCommits(ctx context.Context, owner, name string, n int) ([]types.Commit, error)
	HasFile(ctx context.Context, owner, name, path string) (bool, error)
	GetBranchCount(ctx context.Context, owner, name string) (int, error)
	GetContributorCount(ctx context.Context, owner, name string) (int, error)
	GetClosedIssuesCount(ctx context.Context, owner, name string) (int, error)
}

// Calculator scores one maintainability signal.
type Calculator interface {
	Name() string
	Weight() float64
	Calculate(ctx context.Context, f Forge, owner, name string) (types.MetricResult, error)
}

// All returns the calculators in report order: Documentation, Commit Quality,
// Activity, Issue Management, Community, Branch Management. The set is closed;
// there is no dynamic discovery.
func All() []Calculator {
	return []Calculator{
		Documentation{},
		CommitQuality{},
		Activity{},
		IssueManagement{},
		Community{},
		BranchManagement{},
	}
}
