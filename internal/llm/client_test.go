package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeBaseURL_StripsChatCompletionsSuffix(t *testing.T) {
	// Strips a trailing "/chat/completions" suffix
	got := normalizeBaseURL("https://openrouter.ai/api/v1/chat/completions")
	if got != "https://openrouter.ai/api/v1" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeBaseURL_StripsTrailingSlash(t *testing.T) {
	// Strips a trailing slash without "/chat/completions"
	got := normalizeBaseURL("https://openrouter.ai/api/v1/")
	if got != "https://openrouter.ai/api/v1" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeBaseURL_StripsBoth(t *testing.T) {
	// Strips trailing slash AND "/chat/completions" when both are present
	got := normalizeBaseURL("https://openrouter.ai/api/v1/chat/completions/")
	if got != "https://openrouter.ai/api/v1" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeBaseURL_NoSuffixUnchanged(t *testing.T) {
	// Returns the URL unchanged when neither suffix is present
	got := normalizeBaseURL("https://openrouter.ai/api/v1")
	if got != "https://openrouter.ai/api/v1" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeBaseURL_Empty(t *testing.T) {
	// Returns "" for empty input
	if got := normalizeBaseURL(""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestAnalyze_SendsSingleUserMessage(t *testing.T) {
	var got chatRequest
	var auth, referer, title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		referer = r.Header.Get("HTTP-Referer")
		title = r.Header.Get("X-Title")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	c := New(Config{
		BaseURL: srv.URL, APIKey: "k", Model: "openai/gpt-4o-mini",
		Referer: "https://example.com", Title: "repogauge",
	})
	res, err := c.Analyze(context.Background(), "score this readme")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Content != "hello" || res.TokensUsed != 42 {
		t.Errorf("Result = %+v", res)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "score this readme" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.Model != "openai/gpt-4o-mini" {
		t.Errorf("model = %q", got.Model)
	}
	if auth != "Bearer k" || referer != "https://example.com" || title != "repogauge" {
		t.Errorf("headers = %q / %q / %q", auth, referer, title)
	}
}

func TestAnalyze_MissingUsageMeansZeroTokens(t *testing.T) {
	// An absent usage block reports TokensUsed = 0, not an error
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()
	res, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "p")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.TokensUsed != 0 {
		t.Errorf("TokensUsed = %d, want 0", res.TokensUsed)
	}
}

func TestAnalyze_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("err = %v, want HTTP 429 mention", err)
	}
}

func TestAnalyze_APIErrorBodyIsError(t *testing.T) {
	// A 200 carrying an error object still fails
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer srv.Close()
	_, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("err = %v", err)
	}
}

func TestAnalyze_EmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	if _, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "p"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestAnalyze_ContentIsNormalized(t *testing.T) {
	// Mojibake in the assistant text is repaired before return
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"done ΓÇô fine"}}],"usage":{"total_tokens":1}}`))
	}))
	defer srv.Close()
	res, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "p")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Content != "done - fine" {
		t.Errorf("Content = %q", res.Content)
	}
}
