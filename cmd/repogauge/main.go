// Command repogauge computes a weighted maintainability index for one hosted
// Git repository and prints it as text or JSON.
//
//	repogauge analyze OWNER/REPO [--token TOKEN] [--format text|json] [--llm] [--trace DIR]
//
// Exit codes: 0 success, 1 analysis failure, 2 usage error. A malformed
// OWNER/REPO argument exits before any network call.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/haricheung/repogauge/internal/analyzer"
	"github.com/haricheung/repogauge/internal/forge"
	"github.com/haricheung/repogauge/internal/insight"
	"github.com/haricheung/repogauge/internal/llm"
	"github.com/haricheung/repogauge/internal/llmcache"
	"github.com/haricheung/repogauge/internal/report"
	"github.com/haricheung/repogauge/internal/tracelog"
)

const version = "0.3.0"

const (
	defaultLLMBaseURL = "https://openrouter.ai/api/v1"
	defaultLLMModel   = "openai/gpt-4o-mini"
)

func main() {
	// Load env
	_ = godotenv.Load(".env")

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if len(os.Args) < 2 || os.Args[1] != "analyze" {
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	token := fs.String("token", "", "forge bearer token (defaults to GITHUB_TOKEN)")
	format := fs.String("format", "text", "output format: text or json")
	withLLM := fs.Bool("llm", false, "enrich the report with an LLM review")
	traceDir := fs.String("trace", "", "write a JSONL analysis trace into this directory")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	slug := fs.Arg(0)
	owner, name, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || name == "" {
		fmt.Fprintf(os.Stderr, "repogauge: invalid repository %q, expected OWNER/REPO\n", slug)
		os.Exit(2)
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "repogauge: invalid format %q, expected text or json\n", *format)
		os.Exit(2)
	}
	if *token == "" {
		*token = os.Getenv("GITHUB_TOKEN")
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var tr *tracelog.Trace // nil disables tracing throughout the pipeline
	if *traceDir != "" {
		var err error
		tr, err = tracelog.Open(*traceDir, slug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "repogauge: %v\n", err)
			os.Exit(1)
		}
	}

	fc := forge.New(forge.Config{
		Token:     *token,
		UserAgent: "repogauge/" + version,
		Timeout:   30 * time.Second,
		Recorder:  tr,
	})

	rep, err := analyzer.New(fc).Analyze(ctx, owner, name, tr)
	if err != nil {
		tr.Close(0, "")
		fmt.Fprintf(os.Stderr, "repogauge: %v\n", err)
		os.Exit(1)
	}

	if *withLLM {
		cache := openCache()
		defer cache.Close()
		client := llm.New(llm.Config{
			BaseURL: envOr("OPENROUTER_BASE_URL", defaultLLMBaseURL),
			APIKey:  os.Getenv("OPENROUTER_API_KEY"),
			Model:   envOr("REPOGAUGE_MODEL", defaultLLMModel),
			Referer: "https://github.com/haricheung/repogauge",
			Title:   "repogauge",
		})
		rep = rep.WithLLMAnalysis(insight.New(client, cache, insight.Config{}).Analyze(ctx, fc, owner, name, tr))
	}

	tr.Close(rep.OverallScore, string(rep.Rating))

	switch *format {
	case "json":
		out, err := report.JSON(rep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "repogauge: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
	default:
		fmt.Print(report.Text(rep))
	}
}

// openCache prefers the persistent tier under the user cache dir and falls
// back to memory-only when the directory is unusable (e.g. another process
// holds the LevelDB lock).
func openCache() *llmcache.Cache {
	dir := os.Getenv("REPOGAUGE_CACHE_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, ".cache", "repogauge", "llm")
		}
	}
	if dir != "" {
		if c, err := llmcache.NewPersistent(64, 7*24*time.Hour, dir); err == nil {
			c.Maintenance()
			return c
		}
		slog.Warn("[CACHE] persistent tier unavailable, using memory only", "dir", dir)
	}
	return llmcache.New(64, 7*24*time.Hour)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: repogauge analyze OWNER/REPO [--token TOKEN] [--format text|json] [--llm] [--trace DIR]")
}
