package metric

import (
	"context"
	"fmt"
	"strings"

	"github.com/haricheung/repogauge/internal/types"
)

// docFiles are the five probed paths. Each present file is worth 20 points.
var docFiles = []string{
	"README.md",
	"CONTRIBUTING.md",
	"LICENSE",
	"CODE_OF_CONDUCT.md",
	"CHANGELOG.md",
}

// Documentation scores the presence of standard project documentation files.
type Documentation struct{}

func (Documentation) Name() string    { return "Documentation" }
func (Documentation) Weight() float64 { return 0.20 }

// Calculate probes the five documentation paths and scores 20 points each.
//
// Expectations:
//   - All five present → 100
//   - None present → 0
//   - Details name both the found and the missing files
//   - A forge error other than 404 propagates
func (d Documentation) Calculate(ctx context.Context, f Forge, owner, name string) (types.MetricResult, error) {
	var found, missing []string
	for _, path := range docFiles {
		ok, err := f.HasFile(ctx, owner, name, path)
		if err != nil {
			return types.MetricResult{}, err
		}
		if ok {
			found = append(found, path)
		} else {
			missing = append(missing, path)
		}
	}
	score := 100 * float64(len(found)) / float64(len(docFiles))
	details := fmt.Sprintf("found: %s; missing: %s", listOrNone(found), listOrNone(missing))
	return types.NewMetricResult(d.Name(), score, d.Weight(),
		"Presence of standard project documentation files", details)
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
