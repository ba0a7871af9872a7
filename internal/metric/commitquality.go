package metric

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/haricheung/repogauge/internal/types"
)

const commitSample = 50

// conventionalRe matches conventional-commit subjects, case-insensitively.
var conventionalRe = regexp.MustCompile(`(?i)^(feat|fix|docs|style|refactor|test|chore|perf|ci|build)(\(.+\))?:.+`)

// CommitQuality scores the share of recent commit subjects that read well.
type CommitQuality struct{}

func (CommitQuality) Name() string    { return "Commit Quality" }
func (CommitQuality) Weight() float64 { return 0.15 }

// Calculate fetches up to 50 recent commits and scores 100 × good/total.
//
// Expectations:
//   - No commits → score 0
//   - Score is the percentage of subjects goodSubject accepts
func (c CommitQuality) Calculate(ctx context.Context, f Forge, owner, name string) (types.MetricResult, error) {
	commits, err := f.GetRecentCommits(ctx, owner, name, commitSample)
	if err != nil {
		return types.MetricResult{}, err
	}
	desc := "Quality of recent commit messages"
	if len(commits) == 0 {
		return types.NewMetricResult(c.Name(), 0, c.Weight(), desc, "no commits found")
	}
	good := 0
	for _, commit := range commits {
		if goodSubject(commit.Subject()) {
			good++
		}
	}
	score := 100 * float64(good) / float64(len(commits))
	details := fmt.Sprintf("%d of %d recent commit messages are well formed", good, len(commits))
	return types.NewMetricResult(c.Name(), score, c.Weight(), desc, details)
}

// goodSubject classifies one commit subject line.
//
// Expectations:
//   - Lines shorter than 10 characters are always bad ("feat: x" is bad)
//   - A conventional-commit match of 10+ characters is always good
//   - Lines of 10–19 characters that are not conventional are bad
//   - 20+ characters: good when starting uppercase, not prefixed
//     "merge"/"update" (case-insensitive), and not containing "wip"
func goodSubject(line string) bool {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) < 10 {
		return false
	}
	if conventionalRe.MatchString(line) {
		return true
	}
	if utf8.RuneCountInString(line) < 20 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(first) {
		return false
	}
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "merge") || strings.HasPrefix(lower, "update") {
		return false
	}
	return !strings.Contains(lower, "wip")
}
