// Package tracelog records one JSONL trace file per analysis run: every forge
// call, every metric result, every LLM prompt dispatch, and the final verdict.
// The trace is the raw material for debugging scoring disputes and for
// accounting LLM token spend.
//
// Design constraints:
//   - All Trace methods are nil-safe (no-op on nil receiver) so the pipeline
//     never guards a trace call.
//   - Concurrent writes are safe; the LLM analyzer logs from worker goroutines.
//   - Tracing is opt-in; the default run persists nothing.
package tracelog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind labels one structured event in the trace.
type EventKind string

const (
	KindAnalysisBegin EventKind = "analysis_begin"
	KindAnalysisEnd   EventKind = "analysis_end"
	KindForgeCall     EventKind = "forge_call"
	KindMetric        EventKind = "metric"
	KindLLMCall       EventKind = "llm_call"
)

// Event is one JSONL line. Fields are omitempty so each event carries only
// its relevant data.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp string    `json:"ts"`

	// analysis_begin / analysis_end
	AnalysisID   string  `json:"analysis_id,omitempty"`
	Repository   string  `json:"repository,omitempty"`
	OverallScore float64 `json:"overall_score,omitempty"`
	Rating       string  `json:"rating,omitempty"`
	ElapsedMs    int64   `json:"elapsed_ms,omitempty"`
	TotalTokens  int     `json:"total_tokens,omitempty"`

	// forge_call
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
	Status    int    `json:"status,omitempty"`
	CallMs    int64  `json:"call_ms,omitempty"`

	// metric
	Metric string  `json:"metric,omitempty"`
	Score  float64 `json:"score,omitempty"`
	Weight float64 `json:"weight,omitempty"`

	// llm_call
	Prompt     string `json:"prompt,omitempty"`      // prompt kind: readme | commits | community
	PromptHash string `json:"prompt_hash,omitempty"` // sha256 hex, same key as the cache
	Tokens     int    `json:"tokens,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
}

// Trace is a handle for writing one analysis run's events.
//
// Expectations:
//   - All methods are nil-safe (no-op on nil *Trace)
//   - Concurrent writes are safe (mutex-protected)
//   - TotalTokens returns the running sum across all LLMCall events
type Trace struct {
	id         string
	repository string
	started    time.Time

	mu          sync.Mutex
	f           *os.File
	forgeCalls  int
	totalTokens int
}

// Open creates the trace directory if absent and starts a new trace file
// named <analysis-id>.jsonl, writing an analysis_begin event first.
func Open(dir, repository string) (*Trace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tracelog: create dir %s: %w", dir, err)
	}
	id := uuid.NewString()
	path := filepath.Join(dir, id+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tracelog: open %s: %w", path, err)
	}
	tr := &Trace{id: id, repository: repository, started: time.Now(), f: f}
	tr.write(Event{Kind: KindAnalysisBegin, AnalysisID: id, Repository: repository})
	return tr, nil
}

// ID returns the analysis ID, or "" on a nil receiver.
func (tr *Trace) ID() string {
	if tr == nil {
		return ""
	}
	return tr.id
}

// ForgeCall records one completed forge HTTP call. Satisfies forge.Recorder.
func (tr *Trace) ForgeCall(method, path string, status int, elapsedMs int64) {
	if tr == nil {
		return
	}
	tr.mu.Lock()
	tr.forgeCalls++
	tr.mu.Unlock()
	tr.write(Event{Kind: KindForgeCall, Method: method, Path: path, Status: status, CallMs: elapsedMs})
}

// Metric records one calculator result.
func (tr *Trace) Metric(name string, score, weight float64) {
	if tr == nil {
		return
	}
	tr.write(Event{Kind: KindMetric, Metric: name, Score: score, Weight: weight})
}

// LLMCall records one prompt dispatch. cached marks a cache hit; fallback
// marks a prompt whose sub-report was substituted by the canned fallback.
func (tr *Trace) LLMCall(kind, promptHash string, tokens int, cached, fallback bool) {
	if tr == nil {
		return
	}
	tr.mu.Lock()
	tr.totalTokens += tokens
	tr.mu.Unlock()
	tr.write(Event{Kind: KindLLMCall, Prompt: kind, PromptHash: promptHash, Tokens: tokens, Cached: cached, Fallback: fallback})
}

// TotalTokens returns the token total accumulated so far.
func (tr *Trace) TotalTokens() int {
	if tr == nil {
		return 0
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.totalTokens
}

// ForgeCalls returns the number of forge calls recorded so far.
func (tr *Trace) ForgeCalls() int {
	if tr == nil {
		return 0
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.forgeCalls
}

// Close writes the analysis_end event and closes the file. Safe on nil.
func (tr *Trace) Close(overall float64, rating string) {
	if tr == nil {
		return
	}
	tr.write(Event{
		Kind:         KindAnalysisEnd,
		AnalysisID:   tr.id,
		Repository:   tr.repository,
		OverallScore: overall,
		Rating:       rating,
		ElapsedMs:    time.Since(tr.started).Milliseconds(),
		TotalTokens:  tr.TotalTokens(),
	})
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.f != nil {
		_ = tr.f.Close()
		tr.f = nil
	}
}

// write appends one JSON line, adding the timestamp. Mutex-protected.
func (tr *Trace) write(e Event) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("[TRACE] marshal event", "error", err)
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.f == nil {
		return
	}
	if _, err = fmt.Fprintf(tr.f, "%s\n", data); err != nil {
		slog.Error("[TRACE] write event", "error", err)
	}
}
