package insight

import (
	"github.com/haricheung/repogauge/internal/llm"
	"github.com/haricheung/repogauge/internal/types"
)

// Fallback sub-reports are substituted whenever a prompt fails for any reason:
// transport, HTTP status, deadline, or unparseable JSON. Subscores are neutral
// small constants and the string lists are short generic suggestions. Every
// string passes through the mojibake normaliser, same as live model output.

func fallbackReadme() types.ReadmeAnalysis {
	return types.ReadmeAnalysis{
		Clarity:      5,
		Completeness: 5,
		Newcomer:     5,
		Strengths:    normalizeAll([]string{"README review unavailable"}),
		Improvements: normalizeAll([]string{
			"Ensure the README explains purpose, installation and usage",
		}),
	}
}

func fallbackCommits() types.CommitAnalysis {
	return types.CommitAnalysis{
		Clarity:         5,
		Consistency:     5,
		Informativeness: 5,
		Patterns:        normalizeAll([]string{"Commit review unavailable"}),
		Suggestions: normalizeAll([]string{
			"Write commit subjects that state what changed and why",
		}),
	}
}

func fallbackCommunity() types.CommunityAnalysis {
	return types.CommunityAnalysis{
		Responsiveness: 5,
		Helpfulness:    5,
		Tone:           5,
		Observations:   normalizeAll([]string{"Community review unavailable"}),
		Suggestions: normalizeAll([]string{
			"Respond to new issues and pull requests promptly",
		}),
	}
}

func normalizeAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = llm.Normalize(s)
	}
	return out
}
