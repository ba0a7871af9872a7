package metric

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haricheung/repogauge/internal/forge"
	"github.com/haricheung/repogauge/internal/types"
)

// fakeForge answers from fixed fields; unset error fields mean success.
type fakeForge struct {
	repo       types.Repository
	repoErr    error
	commits    []types.Commit
	commitsErr error
	files      map[string]bool
	filesErr   error
	branches   int
	branchErr  error
	contribs   int
	contribErr error
	closed     int
	closedErr  error
}

func (f *fakeForge) GetRepository(ctx context.Context, owner, name string) (types.Repository, error) {
	return f.repo, f.repoErr
}

func (f *fakeForge) GetRecentCommits(ctx context.Context, owner, name string, n int) ([]types.Commit, error) {
	if f.commitsErr != nil {
		return nil, f.commitsErr
	}
	if n < len(f.commits) {
		return f.commits[:n], nil
	}
	return f.commits, nil
}

func (f *fakeForge) HasFile(ctx context.Context, owner, name, path string) (bool, error) {
	return f.files[path], f.filesErr
}

func (f *fakeForge) GetBranchCount(ctx context.Context, owner, name string) (int, error) {
	return f.branches, f.branchErr
}

func (f *fakeForge) GetContributorCount(ctx context.Context, owner, name string) (int, error) {
	return f.contribs, f.contribErr
}

func (f *fakeForge) GetClosedIssuesCount(ctx context.Context, owner, name string) (int, error) {
	return f.closed, f.closedErr
}

func TestAll_FixedOrder(t *testing.T) {
	want := []string{
		"Documentation", "Commit Quality", "Activity",
		"Issue Management", "Community", "Branch Management",
	}
	calcs := All()
	if len(calcs) != len(want) {
		t.Fatalf("got %d calculators, want %d", len(calcs), len(want))
	}
	for i, c := range calcs {
		if c.Name() != want[i] {
			t.Errorf("All()[%d].Name() = %q, want %q", i, c.Name(), want[i])
		}
	}
}

func TestAll_WeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, c := range All() {
		sum += c.Weight()
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}

func TestDocumentation_AllFilesPresent(t *testing.T) {
	f := &fakeForge{files: map[string]bool{
		"README.md": true, "CONTRIBUTING.md": true, "LICENSE": true,
		"CODE_OF_CONDUCT.md": true, "CHANGELOG.md": true,
	}}
	m, err := Documentation{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 100 {
		t.Errorf("Score = %v, want 100", m.Score)
	}
	if m.Details != "found: README.md, CONTRIBUTING.md, LICENSE, CODE_OF_CONDUCT.md, CHANGELOG.md; missing: none" {
		t.Errorf("Details = %q", m.Details)
	}
}

func TestDocumentation_PartialAndNone(t *testing.T) {
	// 20 points per present file
	f := &fakeForge{files: map[string]bool{"README.md": true, "LICENSE": true}}
	m, err := Documentation{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 40 {
		t.Errorf("two files: Score = %v, want 40", m.Score)
	}

	empty := &fakeForge{}
	m, err = Documentation{}.Calculate(context.Background(), empty, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 0 {
		t.Errorf("no files: Score = %v, want 0", m.Score)
	}
	if m.Details != "found: none; missing: README.md, CONTRIBUTING.md, LICENSE, CODE_OF_CONDUCT.md, CHANGELOG.md" {
		t.Errorf("Details = %q", m.Details)
	}
}

func TestDocumentation_ProbeErrorPropagates(t *testing.T) {
	boom := errors.New("forge down")
	f := &fakeForge{filesErr: boom}
	if _, err := (Documentation{}).Calculate(context.Background(), f, "o", "r"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestGoodSubject_Classification(t *testing.T) {
	cases := []struct {
		subject string
		want    bool
	}{
		// shorter than 10 runes is always bad, conventional or not
		{"feat: x", false},
		{"fix", false},
		// conventional commits of 10+ runes are good
		{"feat: something", true},
		{"fix(api): handle nil", true},
		{"DOCS: update readme", true},
		// 10–19 runes, not conventional
		{"small change!", false},
		// 20+ runes starting uppercase
		{"Refactor storage layer for concurrency", true},
		// merge/update prefixes and wip markers are bad at any length
		{"merge develop into main done", false},
		{"Update dependencies for release", false},
		{"Implement parser, still wip here", false},
		// 20+ runes starting lowercase
		{"implement the parser properly", false},
	}
	for _, c := range cases {
		if got := goodSubject(c.subject); got != c.want {
			t.Errorf("goodSubject(%q) = %v, want %v", c.subject, got, c.want)
		}
	}
}

func TestCommitQuality_PercentageOfGoodSubjects(t *testing.T) {
	f := &fakeForge{commits: []types.Commit{
		{Message: "feat: add widget cache"},
		{Message: "feat: x"},
		{Message: "Refactor storage layer for concurrency"},
		{Message: "wip"},
	}}
	m, err := CommitQuality{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 50 {
		t.Errorf("Score = %v, want 50", m.Score)
	}
	if m.Details != "2 of 4 recent commit messages are well formed" {
		t.Errorf("Details = %q", m.Details)
	}
}

func TestCommitQuality_NoCommits(t *testing.T) {
	m, err := CommitQuality{}.Calculate(context.Background(), &fakeForge{}, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 0 || m.Details != "no commits found" {
		t.Errorf("got (%v, %q)", m.Score, m.Details)
	}
}

func TestActivityScore_Tiers(t *testing.T) {
	cases := []struct {
		days int
		want float64
	}{
		{0, 100}, {7, 100}, {8, 90}, {30, 90}, {31, 70}, {90, 70},
		{91, 50}, {180, 50}, {181, 30}, {365, 30}, {366, 10},
	}
	for _, c := range cases {
		if got := activityScore(c.days); got != c.want {
			t.Errorf("activityScore(%d) = %v, want %v", c.days, got, c.want)
		}
	}
}

func TestActivity_UsesNewestCommit(t *testing.T) {
	// The age comes from the most recent commit, regardless of slice order.
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	f := &fakeForge{commits: []types.Commit{
		{Date: now.AddDate(0, 0, -200)},
		{Date: now.AddDate(0, 0, -3)},
		{Date: now.AddDate(0, 0, -40)},
	}}
	a := Activity{Now: func() time.Time { return now }}
	m, err := a.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 100 {
		t.Errorf("Score = %v, want 100", m.Score)
	}
	if m.Details != "last commit 3 day(s) ago" {
		t.Errorf("Details = %q", m.Details)
	}
}

func TestActivity_NoCommits(t *testing.T) {
	m, err := Activity{}.Calculate(context.Background(), &fakeForge{}, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 0 {
		t.Errorf("Score = %v, want 0", m.Score)
	}
}

func TestIssueScore_RateTiersAndBacklog(t *testing.T) {
	cases := []struct {
		rate float64
		open int
		want float64
	}{
		{80, 0, 100}, {79.9, 0, 85}, {60, 0, 85}, {59.9, 0, 70},
		{40, 0, 70}, {39.9, 0, 50}, {20, 0, 50}, {19.9, 0, 30}, {0, 0, 30},
		// backlog multipliers
		{90, 51, 90}, {90, 100, 90}, {90, 101, 80},
		{70, 120, 68}, {70, 60, 76.5},
	}
	for _, c := range cases {
		if got := issueScore(c.rate, c.open); got != c.want {
			t.Errorf("issueScore(%v, %d) = %v, want %v", c.rate, c.open, got, c.want)
		}
	}
}

func TestIssueManagement_TrackerDisabled(t *testing.T) {
	f := &fakeForge{repo: types.Repository{HasIssues: false}}
	m, err := IssueManagement{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 50 || m.Details != "issue tracking disabled" {
		t.Errorf("got (%v, %q)", m.Score, m.Details)
	}
}

func TestIssueManagement_NoIssuesYet(t *testing.T) {
	f := &fakeForge{repo: types.Repository{HasIssues: true}}
	m, err := IssueManagement{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 80 || m.Details != "no issues recorded yet" {
		t.Errorf("got (%v, %q)", m.Score, m.Details)
	}
}

func TestIssueManagement_EstimatesWhenListingTooLarge(t *testing.T) {
	// open=100, 422 trap → closed = int(100/0.3 × 0.7) = 233,
	// rate ≈ 69.97 → base 85, ×0.9 backlog (open > 50) = 76.5
	f := &fakeForge{
		repo:      types.Repository{HasIssues: true, OpenIssues: 100},
		closedErr: &forge.Error{Kind: forge.KindTooLarge, StatusCode: 422},
	}
	m, err := IssueManagement{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 76.5 {
		t.Errorf("Score = %v, want 76.5", m.Score)
	}
	if m.Details != "100 open, 233 closed (70.0% closure rate), closed count estimated" {
		t.Errorf("Details = %q", m.Details)
	}
}

func TestIssueManagement_OtherErrorsPropagate(t *testing.T) {
	boom := errors.New("listing failed")
	f := &fakeForge{
		repo:      types.Repository{HasIssues: true, OpenIssues: 5},
		closedErr: boom,
	}
	if _, err := (IssueManagement{}).Calculate(context.Background(), f, "o", "r"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestIssueManagement_HealthyTracker(t *testing.T) {
	f := &fakeForge{
		repo:   types.Repository{HasIssues: true, OpenIssues: 10},
		closed: 90,
	}
	m, err := IssueManagement{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 100 {
		t.Errorf("Score = %v, want 100", m.Score)
	}
	if m.Details != "10 open, 90 closed (90.0% closure rate)" {
		t.Errorf("Details = %q", m.Details)
	}
}

func TestCommunity_SubScoresCappedAndBlended(t *testing.T) {
	// 1000 stars, 200 forks, 25 contributors all cap at 100 → 100 overall
	f := &fakeForge{
		repo:     types.Repository{Stars: 1000, Forks: 200},
		contribs: 25,
	}
	m, err := Community{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 100 {
		t.Errorf("Score = %v, want 100", m.Score)
	}
}

func TestCommunity_Blend(t *testing.T) {
	// 0.4×(stars/10) + 0.3×(forks/5) + 0.3×(contribs×10)
	f := &fakeForge{
		repo:     types.Repository{Stars: 100, Forks: 10},
		contribs: 2,
	}
	m, err := Community{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := 0.4*10 + 0.3*2 + 0.3*20
	if m.Score != want {
		t.Errorf("Score = %v, want %v", m.Score, want)
	}
	if m.Details != "100 stars, 10 forks, 2 contributors" {
		t.Errorf("Details = %q", m.Details)
	}
}

func TestBranchScore_Tiers(t *testing.T) {
	cases := []struct {
		branches int
		want     float64
	}{
		{0, 100}, {3, 100}, {4, 95}, {5, 95}, {6, 85}, {10, 85},
		{11, 70}, {20, 70}, {21, 50}, {50, 50}, {51, 30},
	}
	for _, c := range cases {
		if got := branchScore(c.branches); got != c.want {
			t.Errorf("branchScore(%d) = %v, want %v", c.branches, got, c.want)
		}
	}
}

func TestBranchManagement_Calculate(t *testing.T) {
	f := &fakeForge{branches: 2}
	m, err := BranchManagement{}.Calculate(context.Background(), f, "o", "r")
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.Score != 100 || m.Details != "2 branch(es)" {
		t.Errorf("got (%v, %q)", m.Score, m.Details)
	}
}
