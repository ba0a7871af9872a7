package insight

import (
	"fmt"
	"strings"

	"github.com/haricheung/repogauge/internal/types"
)

// Prompt payload caps. Keeps prompts inside conservative context budgets.
const (
	maxReadmeChars  = 6000
	maxPromptCommit = 20
)

const jsonOnly = "Respond with ONLY a JSON object, no prose and no code fences."

// readmePrompt asks for a README review. readme may be empty when the file
// could not be fetched; the model then judges from metadata alone.
func readmePrompt(repo types.Repository, readme string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are reviewing the README of the repository %s.\n", repo.FullName())
	if repo.Description != "" {
		fmt.Fprintf(&sb, "Repository description: %s\n", repo.Description)
	}
	if readme == "" {
		sb.WriteString("The README could not be retrieved; judge from the description only.\n")
	} else {
		fmt.Fprintf(&sb, "README content:\n---\n%s\n---\n", clip(readme, maxReadmeChars))
	}
	sb.WriteString("Rate clarity, completeness and newcomer-friendliness as integers 0-10.\n")
	sb.WriteString(`Return {"clarity":n,"completeness":n,"newcomer_friendliness":n,` +
		`"strengths":["..."],"improvements":["..."]} with at most 3 short items per list. `)
	sb.WriteString(jsonOnly)
	return sb.String()
}

// commitPrompt asks for a review of up to 20 recent commit subjects.
func commitPrompt(repo types.Repository, commits []types.Commit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are reviewing recent commit messages of the repository %s.\n", repo.FullName())
	if len(commits) == 0 {
		sb.WriteString("No commits were available.\n")
	} else {
		sb.WriteString("Recent commit subjects, newest first:\n")
		for i, c := range commits {
			if i >= maxPromptCommit {
				break
			}
			fmt.Fprintf(&sb, "- %s\n", clip(c.Subject(), 120))
		}
	}
	sb.WriteString("Rate clarity, consistency and informativeness as integers 0-10.\n")
	sb.WriteString(`Return {"clarity":n,"consistency":n,"informativeness":n,` +
		`"patterns":["..."],"suggestions":["..."]} with at most 3 short items per list. `)
	sb.WriteString(jsonOnly)
	return sb.String()
}

// communityPrompt asks for a review of the community signals visible in the
// repository metadata.
func communityPrompt(repo types.Repository) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are assessing the community health of the repository %s.\n", repo.FullName())
	fmt.Fprintf(&sb, "Signals: %d stars, %d forks, %d open issues, issue tracker enabled: %v, wiki enabled: %v.\n",
		repo.Stars, repo.Forks, repo.OpenIssues, repo.HasIssues, repo.HasWiki)
	sb.WriteString("Rate responsiveness, helpfulness and tone as integers 0-10.\n")
	sb.WriteString(`Return {"responsiveness":n,"helpfulness":n,"tone":n,` +
		`"observations":["..."],"suggestions":["..."]} with at most 3 short items per list. `)
	sb.WriteString(jsonOnly)
	return sb.String()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
