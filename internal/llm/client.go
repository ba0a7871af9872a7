// Package llm is the chat-completion client for the optional review layer,
// plus the output-repair helpers (mojibake normalisation, fence stripping)
// every string from the model boundary passes through.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Config carries the immutable settings for a Client. The caller resolves
// credentials; the client never reads the environment.
type Config struct {
	BaseURL     string  // endpoint root; "/chat/completions" is appended
	APIKey      string  // bearer token
	Model       string  // e.g. "openai/gpt-4o-mini"
	Temperature float64 // sampling temperature
	MaxTokens   int     // response cap
	Referer     string  // HTTP-Referer provenance header
	Title       string  // X-Title provenance header
	Timeout     time.Duration
}

// Client sends single-prompt chat completions.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// normalizeBaseURL strips trailing slashes and the "/chat/completions" suffix
// from a raw base URL so the path is never doubled when the client appends
// "/chat/completions" itself.
//
// Expectations:
//   - Strips a trailing "/chat/completions" suffix
//   - Strips a trailing slash without "/chat/completions"
//   - Strips trailing slash AND "/chat/completions" when both are present
//   - Returns the URL unchanged when neither suffix is present
//   - Returns "" for empty input
func normalizeBaseURL(raw string) string {
	s := strings.TrimRight(raw, "/")
	return strings.TrimSuffix(s, "/chat/completions")
}

// New creates a Client. Zero-value config fields get conservative defaults.
func New(cfg Config) *Client {
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []chatMsg `json:"messages"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Result is one completed prompt: the (normalised) assistant text and the
// token total the provider reported, 0 when the usage block was absent.
type Result struct {
	Content    string
	TokensUsed int
}

// Analyze sends prompt as a single user message and returns the assistant's
// reply. The content passes through the mojibake normaliser before return.
func (c *Client) Analyze(ctx context.Context, prompt string) (Result, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages:    []chatMsg{{Role: "user", Content: prompt}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("llm: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("llm: HTTP %d: %s", resp.StatusCode, firstN(string(respBody), 200))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return Result{}, fmt.Errorf("llm: unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return Result{}, fmt.Errorf("llm: API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return Result{}, fmt.Errorf("llm: no choices in response")
	}

	content := Normalize(chatResp.Choices[0].Message.Content)
	log.Printf("[LLM] completion ok (tokens=%d, %d chars)", chatResp.Usage.TotalTokens, len(content))
	return Result{Content: content, TokensUsed: chatResp.Usage.TotalTokens}, nil
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
