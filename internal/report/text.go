package report

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/haricheung/repogauge/internal/types"
)

// Text renders the report as a deterministic multi-line plain-text block.
// Metric names are padded by display width so CJK repository descriptions or
// metric details never break column alignment.
func Text(r types.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Repository: %s\n", r.RepositoryFullName)
	fmt.Fprintf(&sb, "Overall score: %s / 100 (%s)\n", formatScore(r.OverallScore), r.Rating)
	sb.WriteString("\n")

	nameWidth := 0
	for _, m := range r.Metrics {
		if w := runewidth.StringWidth(m.Name); w > nameWidth {
			nameWidth = w
		}
	}
	for _, m := range r.Metrics {
		pad := strings.Repeat(" ", nameWidth-runewidth.StringWidth(m.Name))
		fmt.Fprintf(&sb, "%s%s  %6s  (weight %s)  %s\n",
			m.Name, pad, formatScore(m.Score), formatScore(m.Weight), m.Details)
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Recommendation: %s\n", r.Recommendation)

	if r.LLM != nil {
		sb.WriteString("\n")
		sb.WriteString(llmText(*r.LLM))
	}
	return sb.String()
}

func llmText(a types.LLMAnalysis) string {
	var sb strings.Builder
	sb.WriteString("AI review\n")
	fmt.Fprintf(&sb, "  README: clarity %d/10, completeness %d/10, newcomer-friendliness %d/10\n",
		a.Readme.Clarity, a.Readme.Completeness, a.Readme.Newcomer)
	fmt.Fprintf(&sb, "  Commits: clarity %d/10, consistency %d/10, informativeness %d/10\n",
		a.Commits.Clarity, a.Commits.Consistency, a.Commits.Informativeness)
	fmt.Fprintf(&sb, "  Community: responsiveness %d/10, helpfulness %d/10, tone %d/10\n",
		a.Community.Responsiveness, a.Community.Helpfulness, a.Community.Tone)
	sb.WriteString("  Suggestions:\n")
	for _, rec := range a.Recommendations {
		fmt.Fprintf(&sb, "    [%d] %s: %s\n", rec.Impact, rec.Category, rec.Suggestion)
	}
	fmt.Fprintf(&sb, "  Confidence: %s%%, tokens used: %d\n", formatScore(a.Confidence), a.TokensUsed)
	return sb.String()
}
