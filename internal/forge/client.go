// Package forge is the REST client for the hosted Git service. All operations
// are blocking, single-request, and side-effect free; the client holds only
// immutable configuration and is safe to share across goroutines.
//
// Failure semantics: every non-2xx response is surfaced as a *Error carrying
// the numeric status and a kind (see errors.go). A 422 on a listing is the
// one non-terminal kind: the dataset is too large to page and the caller
// decides how to estimate.
package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/haricheung/repogauge/internal/types"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"

	acceptHeader = "application/vnd.github+json"

	// pageCap is the forge's hard per_page ceiling. Branch and contributor
	// counts read a single page, so results above the cap are a lower bound.
	pageCap = 100
)

// Recorder observes completed forge calls. Implementations must tolerate
// concurrent calls; a nil Recorder disables observation.
type Recorder interface {
	ForgeCall(method, path string, status int, elapsedMs int64)
}

// Config carries the immutable settings for a Client.
type Config struct {
	BaseURL   string        // defaults to DefaultBaseURL
	Token     string        // optional bearer token
	UserAgent string        // stable User-Agent sent on every request
	Timeout   time.Duration // connect+read timeout per call; defaults to 30s
	Recorder  Recorder      // optional call observer
}

// Client talks to one forge at a fixed base URL.
type Client struct {
	rc *resty.Client
}

// New builds a Client from cfg. No retries are configured: a rate-limit
// rejection is terminal at this layer and the caller owns retry policy.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "repogauge"
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", acceptHeader).
		SetHeader("User-Agent", cfg.UserAgent)
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}
	if rec := cfg.Recorder; rec != nil {
		rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			rec.ForgeCall(resp.Request.Method, resp.Request.URL, resp.StatusCode(), resp.Time().Milliseconds())
			return nil
		})
	}
	return &Client{rc: rc}
}

// repositoryDoc mirrors the forge's repository JSON.
type repositoryDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	OpenIssues    int       `json:"open_issues_count"`
	UpdatedAt     time.Time `json:"updated_at"`
	HasWiki       bool      `json:"has_wiki"`
	HasIssues     bool      `json:"has_issues"`
	DefaultBranch string    `json:"default_branch"`
	Size          int       `json:"size"`
}

// commitDoc mirrors one element of the forge's commit list JSON.
type commitDoc struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// GetRepository fetches the metadata snapshot for owner/name.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (types.Repository, error) {
	path := fmt.Sprintf("/repos/%s/%s", owner, name)
	resp, err := c.rc.R().SetContext(ctx).Get(path)
	if err != nil {
		return types.Repository{}, fmt.Errorf("forge: GET %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return types.Repository{}, classify(resp, path)
	}
	var doc repositoryDoc
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return types.Repository{}, &Error{Kind: KindProtocol, StatusCode: resp.StatusCode(), Path: path, Detail: "malformed repository JSON"}
	}
	return types.Repository{
		Owner:         doc.Owner.Login,
		Name:          doc.Name,
		Description:   doc.Description,
		Stars:         doc.Stars,
		Forks:         doc.Forks,
		OpenIssues:    doc.OpenIssues,
		LastUpdated:   doc.UpdatedAt.UTC(),
		HasWiki:       doc.HasWiki,
		HasIssues:     doc.HasIssues,
		DefaultBranch: doc.DefaultBranch,
		Size:          doc.Size,
	}, nil
}

// GetRecentCommits returns up to min(n, 100) recent commits, newest first.
// The client never paginates commits: one page is the contract.
//
// Expectations:
//   - per_page is min(n, 100)
//   - Returns an empty slice when the repository has no commits
//   - n ≤ 0 returns an empty slice without a network call
func (c *Client) GetRecentCommits(ctx context.Context, owner, name string, n int) ([]types.Commit, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > pageCap {
		n = pageCap
	}
	path := fmt.Sprintf("/repos/%s/%s/commits", owner, name)
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("per_page", strconv.Itoa(n)).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("forge: GET %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return nil, classify(resp, path)
	}
	var docs []commitDoc
	if err := json.Unmarshal(resp.Body(), &docs); err != nil {
		return nil, &Error{Kind: KindProtocol, StatusCode: resp.StatusCode(), Path: path, Detail: "malformed commit list JSON"}
	}
	commits := make([]types.Commit, 0, len(docs))
	for _, d := range docs {
		commits = append(commits, types.Commit{
			SHA:     d.SHA,
			Message: d.Commit.Message,
			Author:  d.Commit.Author.Name,
			Date:    d.Commit.Author.Date.UTC(),
		})
	}
	return commits, nil
}

// HasFile probes a path in the repository's default branch.
//
// Expectations:
//   - 2xx → true
//   - 404 → false, nil error
//   - any other non-2xx → error
func (c *Client) HasFile(ctx context.Context, owner, name, filePath string) (bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, name, filePath)
	resp, err := c.rc.R().SetContext(ctx).Get(path)
	if err != nil {
		return false, fmt.Errorf("forge: GET %s: %w", path, err)
	}
	if resp.IsSuccess() {
		return true, nil
	}
	if resp.StatusCode() == 404 {
		return false, nil
	}
	return false, classify(resp, path)
}

// GetBranchCount counts branches in the first page of results (cap 100).
// Callers accept this as a lower bound for very large repositories.
func (c *Client) GetBranchCount(ctx context.Context, owner, name string) (int, error) {
	return c.countFirstPage(ctx, fmt.Sprintf("/repos/%s/%s/branches", owner, name))
}

// GetContributorCount counts contributors in the first page of results
// (cap 100), the same single-page approximation as GetBranchCount.
func (c *Client) GetContributorCount(ctx context.Context, owner, name string) (int, error) {
	return c.countFirstPage(ctx, fmt.Sprintf("/repos/%s/%s/contributors", owner, name))
}

func (c *Client) countFirstPage(ctx context.Context, path string) (int, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("per_page", strconv.Itoa(pageCap)).
		Get(path)
	if err != nil {
		return 0, fmt.Errorf("forge: GET %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return 0, classify(resp, path)
	}
	// The forge answers 204 with an empty body for brand-new repositories.
	if len(resp.Body()) == 0 {
		return 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return 0, &Error{Kind: KindProtocol, StatusCode: resp.StatusCode(), Path: path, Detail: "malformed list JSON"}
	}
	return len(items), nil
}

// GetClosedIssuesCount reads the total number of closed issues from the
// pagination link header of a per_page=1 listing: the count is the page=N
// value of the rel="last" link. Without a last link the count is the body
// length.
//
// Expectations:
//   - Reads page=N from the rel="last" link regardless of query ordering
//   - Falls back to the body length when only other rels are present
//   - 422 → *Error with KindTooLarge (non-terminal for the issue metric)
func (c *Client) GetClosedIssuesCount(ctx context.Context, owner, name string) (int, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, name)
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"state": "closed", "per_page": "1"}).
		Get(path)
	if err != nil {
		return 0, fmt.Errorf("forge: GET %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return 0, classify(resp, path)
	}
	if n, ok := lastPage(resp.Header().Get("Link")); ok {
		return n, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return 0, &Error{Kind: KindProtocol, StatusCode: resp.StatusCode(), Path: path, Detail: "malformed issue list JSON"}
	}
	return len(items), nil
}

// readmeDoc mirrors the forge's readme JSON.
type readmeDoc struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetReadme fetches and decodes the repository README. The forge delivers the
// body base64-encoded with embedded newlines.
func (c *Client) GetReadme(ctx context.Context, owner, name string) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/readme", owner, name)
	resp, err := c.rc.R().SetContext(ctx).Get(path)
	if err != nil {
		return "", fmt.Errorf("forge: GET %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return "", classify(resp, path)
	}
	var doc readmeDoc
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return "", &Error{Kind: KindProtocol, StatusCode: resp.StatusCode(), Path: path, Detail: "malformed readme JSON"}
	}
	if doc.Encoding != "base64" {
		return doc.Content, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(doc.Content, "\n", ""))
	if err != nil {
		return "", &Error{Kind: KindProtocol, StatusCode: resp.StatusCode(), Path: path, Detail: "undecodable readme content"}
	}
	return string(raw), nil
}

// classify maps a non-2xx response to a typed *Error.
func classify(resp *resty.Response, path string) *Error {
	e := &Error{StatusCode: resp.StatusCode(), Path: path, Detail: apiMessage(resp.Body())}
	switch resp.StatusCode() {
	case 404:
		e.Kind = KindNotFound
	case 401:
		e.Kind = KindUnauthorized
	case 403:
		if resp.Header().Get("X-RateLimit-Remaining") == "0" {
			e.Kind = KindRateLimited
		} else {
			e.Kind = KindUnauthorized
		}
	case 422:
		e.Kind = KindTooLarge
	default:
		e.Kind = KindProtocol
	}
	return e
}

// apiMessage pulls the "message" field out of a forge error body, if any.
func apiMessage(body []byte) string {
	var doc struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &doc) == nil {
		return doc.Message
	}
	return ""
}
