// Package insight is the optional LLM review layer. It builds three prompts
// (README, commits, community), dispatches them through a bounded worker pool
// with a single overall deadline, caches completions by content hash, and
// substitutes canned fallbacks on any failure. Partial failure is the norm:
// this package never propagates an LLM error outward.
package insight

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/haricheung/repogauge/internal/llm"
	"github.com/haricheung/repogauge/internal/llmcache"
	"github.com/haricheung/repogauge/internal/tracelog"
	"github.com/haricheung/repogauge/internal/types"
)

// LLM is the completion surface this package needs. *llm.Client satisfies it.
type LLM interface {
	Analyze(ctx context.Context, prompt string) (llm.Result, error)
}

// Forge is the read surface this package needs from the forge client.
type Forge interface {
	GetRepository(ctx context.Context, owner, name string) (types.Repository, error)
	GetRecentCommits(ctx context.Context, owner, name string, n int) ([]types.Commit, error)
	GetReadme(ctx context.Context, owner, name string) (string, error)
}

const (
	defaultWorkers  = 3
	defaultDeadline = 60 * time.Second
	commitSample    = 20

	kindReadme    = "readme"
	kindCommits   = "commits"
	kindCommunity = "community"
)

// Config tunes the worker pool. Zero values select the defaults.
type Config struct {
	Workers  int           // pool size; the provider may rate-limit above 3
	Deadline time.Duration // total budget across all three prompts
}

// Analyzer owns the cache for its lifetime and fans prompts out through it.
type Analyzer struct {
	client   LLM
	cache    *llmcache.Cache
	workers  int
	deadline time.Duration
}

// New creates an Analyzer. cache may not be nil; the analyzer owns it.
func New(client LLM, cache *llmcache.Cache, cfg Config) *Analyzer {
	if cfg.Workers < defaultWorkers {
		cfg.Workers = defaultWorkers
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = defaultDeadline
	}
	return &Analyzer{client: client, cache: cache, workers: cfg.Workers, deadline: cfg.Deadline}
}

// task is one prompt dispatch.
type task struct {
	kind   string
	prompt string
}

// outcome is one finished (or failed) prompt.
type outcome struct {
	kind    string
	content string
	tokens  int
	cached  bool
	err     error
}

// Analyze produces the LLM review for owner/name. It never returns an error:
// every failure path lands in a fallback sub-report. tr may be nil.
//
// Expectations:
//   - A failing LLM endpoint yields a fully fallback-populated analysis
//     with TokensUsed 0 and Confidence in [25,95]
//   - A second run over the same repository is served from the cache
//   - Recommendations are sorted by impact, descending, and never empty
func (a *Analyzer) Analyze(ctx context.Context, f Forge, owner, name string, tr *tracelog.Trace) types.LLMAnalysis {
	repoFull := owner + "/" + name

	// Context gathering is best-effort: a failed fetch degrades the prompt,
	// never the analysis.
	repo, err := f.GetRepository(ctx, owner, name)
	if err != nil {
		slog.Warn("[INSIGHT] repository metadata unavailable", "repo", repoFull, "error", err)
		repo = types.Repository{Owner: owner, Name: name}
	}
	commits, err := f.GetRecentCommits(ctx, owner, name, commitSample)
	if err != nil {
		slog.Warn("[INSIGHT] commits unavailable", "repo", repoFull, "error", err)
	}
	readme, err := f.GetReadme(ctx, owner, name)
	if err != nil {
		slog.Warn("[INSIGHT] readme unavailable", "repo", repoFull, "error", err)
	}

	tasks := []task{
		{kind: kindReadme, prompt: readmePrompt(repo, readme)},
		{kind: kindCommits, prompt: commitPrompt(repo, commits)},
		{kind: kindCommunity, prompt: communityPrompt(repo)},
	}

	dctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	jobs := make(chan task, len(tasks))
	results := make(chan outcome, len(tasks))
	for w := 0; w < a.workers; w++ {
		go func() {
			for t := range jobs {
				results <- a.runTask(dctx, repoFull, t)
			}
		}()
	}
	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)

	// Join with the overall deadline; unfinished prompts fall back.
	done := make(map[string]outcome, len(tasks))
collect:
	for len(done) < len(tasks) {
		select {
		case o := <-results:
			done[o.kind] = o
		case <-dctx.Done():
			break collect
		}
	}

	analysis := types.LLMAnalysis{
		Readme:    fallbackReadme(),
		Commits:   fallbackCommits(),
		Community: fallbackCommunity(),
	}
	for _, t := range tasks {
		o, ok := done[t.kind]
		hash := llmcache.Key(repoFull, t.prompt)
		if !ok {
			slog.Warn("[INSIGHT] prompt timed out, using fallback", "kind", t.kind)
			tr.LLMCall(t.kind, hash, 0, false, true)
			continue
		}
		if o.err != nil {
			slog.Warn("[INSIGHT] prompt failed, using fallback", "kind", t.kind, "error", o.err)
			tr.LLMCall(t.kind, hash, 0, o.cached, true)
			continue
		}
		if !a.applySubReport(&analysis, t.kind, o.content) {
			slog.Warn("[INSIGHT] unparseable response, using fallback", "kind", t.kind)
			tr.LLMCall(t.kind, hash, o.tokens, o.cached, true)
			analysis.TokensUsed += o.tokens
			continue
		}
		tr.LLMCall(t.kind, hash, o.tokens, o.cached, false)
		analysis.TokensUsed += o.tokens
	}

	analysis.Recommendations = deriveRecommendations(analysis)
	analysis.Confidence = confidence(analysis)
	return analysis
}

// runTask serves one prompt: cache first, then the live endpoint. A live
// completion is stored back into the cache before returning.
func (a *Analyzer) runTask(ctx context.Context, repoFull string, t task) outcome {
	if e, ok := a.cache.Get(repoFull, t.prompt); ok {
		return outcome{kind: t.kind, content: e.Content, tokens: e.TokensUsed, cached: true}
	}
	res, err := a.client.Analyze(ctx, t.prompt)
	if err != nil {
		return outcome{kind: t.kind, err: err}
	}
	a.cache.Put(repoFull, t.prompt, llmcache.Entry{Content: res.Content, TokensUsed: res.TokensUsed})
	return outcome{kind: t.kind, content: res.Content, tokens: res.TokensUsed}
}

// applySubReport parses content into the sub-report for kind, sanitising
// every field. Returns false when the JSON does not parse.
func (a *Analyzer) applySubReport(analysis *types.LLMAnalysis, kind, content string) bool {
	payload := []byte(llm.StripFences(content))
	switch kind {
	case kindReadme:
		var r types.ReadmeAnalysis
		if json.Unmarshal(payload, &r) != nil {
			return false
		}
		r.Clarity = clampScore(r.Clarity)
		r.Completeness = clampScore(r.Completeness)
		r.Newcomer = clampScore(r.Newcomer)
		r.Strengths = normalizeAll(r.Strengths)
		r.Improvements = normalizeAll(r.Improvements)
		analysis.Readme = r
	case kindCommits:
		var c types.CommitAnalysis
		if json.Unmarshal(payload, &c) != nil {
			return false
		}
		c.Clarity = clampScore(c.Clarity)
		c.Consistency = clampScore(c.Consistency)
		c.Informativeness = clampScore(c.Informativeness)
		c.Patterns = normalizeAll(c.Patterns)
		c.Suggestions = normalizeAll(c.Suggestions)
		analysis.Commits = c
	case kindCommunity:
		var c types.CommunityAnalysis
		if json.Unmarshal(payload, &c) != nil {
			return false
		}
		c.Responsiveness = clampScore(c.Responsiveness)
		c.Helpfulness = clampScore(c.Helpfulness)
		c.Tone = clampScore(c.Tone)
		c.Observations = normalizeAll(c.Observations)
		c.Suggestions = normalizeAll(c.Suggestions)
		analysis.Community = c
	default:
		return false
	}
	return true
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}

// recTemplate maps a weak subscore to an actionable suggestion.
type recTemplate struct {
	category   string
	suggestion string
	score      func(a types.LLMAnalysis) int
}

var recTemplates = []recTemplate{
	{"documentation", "Clarify the README introduction so the project's purpose is obvious",
		func(a types.LLMAnalysis) int { return a.Readme.Clarity }},
	{"documentation", "Fill README gaps: installation, usage and contribution guidance",
		func(a types.LLMAnalysis) int { return a.Readme.Completeness }},
	{"documentation", "Add a newcomer-oriented quick-start section to the README",
		func(a types.LLMAnalysis) int { return a.Readme.Newcomer }},
	{"commits", "Write commit subjects that state what changed",
		func(a types.LLMAnalysis) int { return a.Commits.Clarity }},
	{"commits", "Adopt one consistent commit message convention",
		func(a types.LLMAnalysis) int { return a.Commits.Consistency }},
	{"commits", "Include the motivation for a change in its commit message",
		func(a types.LLMAnalysis) int { return a.Commits.Informativeness }},
	{"community", "Triage and answer new issues more quickly",
		func(a types.LLMAnalysis) int { return a.Community.Responsiveness }},
	{"community", "Give issue reporters concrete next steps",
		func(a types.LLMAnalysis) int { return a.Community.Helpfulness }},
	{"community", "Keep maintainer replies welcoming to first-time contributors",
		func(a types.LLMAnalysis) int { return a.Community.Tone }},
}

// deriveRecommendations turns every subscore below 7 into a recommendation
// with impact 10−score, sorted by impact descending.
func deriveRecommendations(a types.LLMAnalysis) []types.AIRecommendation {
	var recs []types.AIRecommendation
	for _, t := range recTemplates {
		s := t.score(a)
		if s >= 7 {
			continue
		}
		recs = append(recs, types.AIRecommendation{
			Category:   t.category,
			Suggestion: llm.Normalize(t.suggestion),
			Impact:     10 - s,
		})
	}
	if len(recs) == 0 {
		recs = append(recs, types.AIRecommendation{
			Category:   "general",
			Suggestion: llm.Normalize("Maintain current practices; no high-impact gaps detected"),
			Impact:     1,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Impact > recs[j].Impact })
	return recs
}

// confidence maps average subscore coverage onto [25,95].
func confidence(a types.LLMAnalysis) float64 {
	sum := a.Readme.Clarity + a.Readme.Completeness + a.Readme.Newcomer +
		a.Commits.Clarity + a.Commits.Consistency + a.Commits.Informativeness +
		a.Community.Responsiveness + a.Community.Helpfulness + a.Community.Tone
	avg := float64(sum) / 9
	c := 25 + avg*7
	if c < 25 {
		c = 25
	}
	if c > 95 {
		c = 95
	}
	return c
}
