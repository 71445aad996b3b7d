package validate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dotanuki-labs/canopus/internal/codeowners"
	"github.com/dotanuki-labs/canopus/internal/config"
)

// fakeLookup is an in-memory DirectoryLookup for tests.
type fakeLookup struct {
	users      map[string]bool
	members    []string
	teams      map[string]bool
	userErrs   map[string]error
	teamErrs   map[string]error
	membersErr error
}

func (f *fakeLookup) UserExists(_ context.Context, handle string) (bool, error) {
	if err, ok := f.userErrs[handle]; ok {
		return false, err
	}
	return f.users[handle], nil
}

func (f *fakeLookup) OrgMembers(_ context.Context, org string) ([]string, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members, nil
}

func (f *fakeLookup) TeamExists(_ context.Context, org, team string) (bool, error) {
	key := org + "/" + team
	if err, ok := f.teamErrs[key]; ok {
		return false, err
	}
	return f.teams[key], nil
}

func offlineConfig(org string) config.Effective {
	return config.Effective{Organization: org, OfflineOnly: true}
}

func validateOffline(t *testing.T, contents string, cfg config.Effective, paths []string) []Issue {
	t.Helper()
	v := &Validator{}
	return v.Validate(context.Background(), codeowners.Parse(contents), cfg, paths)
}

func kinds(issues []Issue) []IssueKind {
	out := make([]IssueKind, len(issues))
	for i, issue := range issues {
		out[i] = issue.Kind
	}
	return out
}

func TestValidate_CleanFile(t *testing.T) {
	contents := "*.rs @dotanuki-labs/rustaceans\n"
	issues := validateOffline(t, contents, offlineConfig("dotanuki-labs"), []string{"main.rs"})

	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestValidate_InvalidSyntaxAndDanglingPattern(t *testing.T) {
	// The owner token lacks '@': the line is malformed, and its pattern
	// additionally matches nothing in the tree.
	contents := "*.rs @dotanuki/crabbers\n*.js dotanuki/frontend\n"
	issues := validateOffline(t, contents, offlineConfig("dotanuki"), []string{"main.rs", "lib.rs"})

	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(issues), issues)
	}
	if issues[0].Kind != InvalidSyntax || issues[0].Line != 2 {
		t.Errorf("first issue = %+v, want invalid_syntax at line 2", issues[0])
	}
	if issues[1].Kind != DanglingGlobPattern || issues[1].Line != 2 {
		t.Errorf("second issue = %+v, want dangling_glob_pattern at line 2", issues[1])
	}
	for _, issue := range issues {
		if !issue.Offline {
			t.Errorf("issue %v should be offline", issue.Kind)
		}
	}
}

func TestValidate_DanglingPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    int
	}{
		{"matching pattern", "*.rs", 0},
		{"dangling pattern", "*.js", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents := tt.pattern + " @dotanuki-labs/rustaceans\n"
			issues := validateOffline(t, contents, offlineConfig("dotanuki-labs"), []string{"src/a.rs"})

			if len(issues) != tt.want {
				t.Errorf("expected %d issues, got %v", tt.want, issues)
			}
			if tt.want == 1 && issues[0].Kind != DanglingGlobPattern {
				t.Errorf("issue = %+v, want dangling_glob_pattern", issues[0])
			}
		})
	}
}

func TestValidate_DuplicateOwnership(t *testing.T) {
	contents := "# header\n\n*.rs @org/rustaceans\ndocs/ @org/devs\n\n\n*.rs @org/crabbers\n"
	paths := []string{"main.rs", "docs/README.md"}
	issues := validateOffline(t, contents, offlineConfig("org"), paths)

	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	issue := issues[0]
	if issue.Kind != DuplicateOwnership {
		t.Errorf("kind = %v, want duplicate_ownership", issue.Kind)
	}
	if issue.Line != 3 {
		t.Errorf("line = %d, want 3 (the earlier, shadowed rule)", issue.Line)
	}
	if want := "*.rs defined multiple times : lines [3, 7]"; issue.Message != want {
		t.Errorf("message = %q, want %q", issue.Message, want)
	}
}

func TestValidate_DuplicateOwnership_NormalizedPatterns(t *testing.T) {
	// docs/*.md and /docs/*.md are the same pattern: an interior slash
	// anchors to the root with or without the leading slash.
	contents := "docs/*.md @org/devs\n/docs/*.md @org/writers\n"
	issues := validateOffline(t, contents, offlineConfig("org"), []string{"docs/a.md"})

	if len(issues) != 1 || issues[0].Kind != DuplicateOwnership {
		t.Errorf("expected one duplicate_ownership issue, got %v", issues)
	}
}

func TestValidate_TeamDoesNotMatchOrganization(t *testing.T) {
	contents := "*.rs @other-org/rustaceans\n"
	issues := validateOffline(t, contents, offlineConfig("dotanuki-labs"), []string{"main.rs"})

	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %v", issues)
	}
	if issues[0].Kind != TeamDoesNotMatchOrganization || issues[0].Line != 1 {
		t.Errorf("issue = %+v, want team_does_not_match_organization at line 1", issues[0])
	}
}

func TestValidate_EmailOwnerForbidden(t *testing.T) {
	cfg := offlineConfig("org")
	cfg.ForbidEmailOwners = true

	contents := "*.rs ops@dotanuki.dev\n"
	issues := validateOffline(t, contents, cfg, []string{"main.rs"})

	found := false
	for _, issue := range issues {
		if issue.Kind == EmailOwnerForbidden && issue.Line == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected email_owner_forbidden at line 1, got %v", issues)
	}
}

func TestValidate_TeamsOverrideForbidsEmails(t *testing.T) {
	// forbid-email-owners=false, enforce-github-teams-owners=true: the
	// effective config still forbids emails. The override is computed by
	// Config.Effective, mirrored here.
	cfg := &config.Config{
		General:   config.General{GithubOrganization: "org", OfflineChecksOnly: true},
		Ownership: config.Ownership{EnforceGithubTeamsOwners: true},
	}

	contents := "*.rs ops@dotanuki.dev\n"
	issues := validateOffline(t, contents, cfg.Effective(), []string{"main.rs"})

	var got []IssueKind
	for _, issue := range issues {
		got = append(got, issue.Kind)
	}
	if len(got) != 2 || got[0] != EmailOwnerForbidden || got[1] != OnlyGithubTeamOwnerAllowed {
		t.Errorf("kinds = %v, want [email_owner_forbidden only_github_team_owner_allowed]", got)
	}
}

func TestValidate_OnlyGithubTeamOwnerAllowed(t *testing.T) {
	cfg := offlineConfig("org")
	cfg.EnforceGithubTeams = true

	contents := "*.rs @org/rustaceans @ubiratansoares\n"
	issues := validateOffline(t, contents, cfg, []string{"main.rs"})

	if len(issues) != 1 || issues[0].Kind != OnlyGithubTeamOwnerAllowed {
		t.Errorf("expected only_github_team_owner_allowed, got %v", issues)
	}
}

func TestValidate_OnlyOneOwnerPerEntry(t *testing.T) {
	cfg := offlineConfig("org")
	cfg.EnforceOneOwnerPerLine = true

	contents := "*.rs @org/a @org/b\ndocs/ @org/devs\n"
	issues := validateOffline(t, contents, cfg, []string{"main.rs", "docs/README.md"})

	if len(issues) != 1 || issues[0].Kind != OnlyOneOwnerPerEntry || issues[0].Line != 1 {
		t.Errorf("expected only_one_owner_per_entry at line 1, got %v", issues)
	}
}

func TestValidate_OfflineOnlySkipsLookup(t *testing.T) {
	lookup := &fakeLookup{
		userErrs: map[string]error{"ghost": errors.New("must not be called")},
	}
	v := &Validator{Lookup: lookup}

	cfg := offlineConfig("org")
	doc := codeowners.Parse("*.rs @ghost\n")
	issues := v.Validate(context.Background(), doc, cfg, []string{"main.rs"})

	if len(issues) != 0 {
		t.Errorf("offline-only run must not produce online issues, got %v", issues)
	}
}

func TestValidate_NilLookupSkipsOnlineRules(t *testing.T) {
	v := &Validator{}
	cfg := config.Effective{Organization: "org"}
	doc := codeowners.Parse("*.rs @ghost\n")

	issues := v.Validate(context.Background(), doc, cfg, []string{"main.rs"})
	if len(issues) != 0 {
		t.Errorf("online rules must be skipped without a lookup, got %v", issues)
	}
}

func onlineConfig(org string) config.Effective {
	return config.Effective{Organization: org}
}

func TestValidate_OnlineUserChecks(t *testing.T) {
	tests := []struct {
		name   string
		lookup *fakeLookup
		want   IssueKind
		none   bool
	}{
		{
			name: "member user is fine",
			lookup: &fakeLookup{
				members: []string{"ubiratansoares"},
				users:   map[string]bool{"ubiratansoares": true},
			},
			none: true,
		},
		{
			name: "existing non-member is an outsider",
			lookup: &fakeLookup{
				members: []string{"someone-else"},
				users:   map[string]bool{"ubiratansoares": true},
			},
			want: OutsiderUser,
		},
		{
			name: "unknown handle does not exist",
			lookup: &fakeLookup{
				members: []string{"someone-else"},
				users:   map[string]bool{},
			},
			want: UserDoesNotExist,
		},
		{
			name: "transport failure cannot verify",
			lookup: &fakeLookup{
				members:  []string{"someone-else"},
				userErrs: map[string]error{"ubiratansoares": errors.New("boom")},
			},
			want: CannotVerifyUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Validator{Lookup: tt.lookup}
			doc := codeowners.Parse("*.rs @ubiratansoares\n")
			issues := v.Validate(context.Background(), doc, onlineConfig("org"), []string{"main.rs"})

			if tt.none {
				if len(issues) != 0 {
					t.Errorf("expected no issues, got %v", issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Kind != tt.want || issues[0].Line != 1 {
				t.Errorf("issues = %v, want one %v at line 1", issues, tt.want)
			}
		})
	}
}

func TestValidate_OnlineTeamChecks(t *testing.T) {
	tests := []struct {
		name   string
		lookup *fakeLookup
		want   IssueKind
		none   bool
	}{
		{
			name:   "existing team is fine",
			lookup: &fakeLookup{teams: map[string]bool{"org/rustaceans": true}},
			none:   true,
		},
		{
			name:   "missing team does not exist",
			lookup: &fakeLookup{teams: map[string]bool{}},
			want:   TeamDoesNotExist,
		},
		{
			name:   "transport failure cannot verify",
			lookup: &fakeLookup{teamErrs: map[string]error{"org/rustaceans": errors.New("boom")}},
			want:   CannotVerifyTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Validator{Lookup: tt.lookup}
			doc := codeowners.Parse("*.rs @org/rustaceans\n")
			issues := v.Validate(context.Background(), doc, onlineConfig("org"), []string{"main.rs"})

			if tt.none {
				if len(issues) != 0 {
					t.Errorf("expected no issues, got %v", issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Kind != tt.want {
				t.Errorf("issues = %v, want one %v", issues, tt.want)
			}
		})
	}
}

func TestValidate_OrganizationDoesNotExist(t *testing.T) {
	lookup := &fakeLookup{
		membersErr: fmt.Errorf("organization org: %w", ErrNotFound),
	}
	v := &Validator{Lookup: lookup}
	doc := codeowners.Parse("*.rs @ubiratansoares\ndocs/ @org/devs\n")
	issues := v.Validate(context.Background(), doc, onlineConfig("org"), []string{"main.rs", "docs/a.md"})

	if len(issues) != 1 {
		t.Fatalf("expected a single issue, got %v", issues)
	}
	if issues[0].Kind != OrganizationDoesNotExist || issues[0].Line != 0 {
		t.Errorf("issue = %+v, want organization_does_not_exist at line 0", issues[0])
	}
}

func TestValidate_CannotListMembersStillChecksUsers(t *testing.T) {
	lookup := &fakeLookup{
		membersErr: errors.New("rate limited"),
		users:      map[string]bool{"exists": true},
	}
	v := &Validator{Lookup: lookup}
	doc := codeowners.Parse("*.rs @exists\n*.md @ghost\n")
	issues := v.Validate(context.Background(), doc, onlineConfig("org"), []string{"main.rs", "README.md"})

	got := kinds(issues)
	// Listing failure is reported once; membership verdicts are suppressed
	// but existence checks still run.
	want := []IssueKind{CannotListMembersInTheOrganization, UserDoesNotExist}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("kinds = %v, want %v", got, want)
	}
	if issues[0].Severity != SeverityWarning {
		t.Errorf("cannot_list severity = %v, want warning", issues[0].Severity)
	}
	if issues[1].Line != 2 {
		t.Errorf("user_does_not_exist at line %d, want 2", issues[1].Line)
	}
}

func TestValidate_FailSoftPerLookup(t *testing.T) {
	// One user lookup fails; the other lines are still fully validated.
	lookup := &fakeLookup{
		members:  []string{"good"},
		users:    map[string]bool{"good": true},
		userErrs: map[string]error{"flaky": errors.New("timeout")},
		teams:    map[string]bool{"org/devs": true},
	}
	v := &Validator{Lookup: lookup}
	doc := codeowners.Parse("*.rs @flaky\n*.md @good\ndocs/ @org/devs\n*.js @ghost\n")
	paths := []string{"main.rs", "README.md", "docs/a.md", "app.js"}
	issues := v.Validate(context.Background(), doc, onlineConfig("org"), paths)

	got := kinds(issues)
	want := []IssueKind{CannotVerifyUser, UserDoesNotExist}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if issues[0].Line != 1 || issues[1].Line != 4 {
		t.Errorf("lines = %d, %d; want 1, 4", issues[0].Line, issues[1].Line)
	}
}

func TestValidate_IssuesOrderedByLine(t *testing.T) {
	lookup := &fakeLookup{
		members: []string{},
		users:   map[string]bool{},
		teams:   map[string]bool{},
	}
	v := &Validator{Lookup: lookup, MaxLookups: 2}
	contents := "*.zig @ghost\nbroken line here\n*.rs @org/missing\n"
	doc := codeowners.Parse(contents)
	issues := v.Validate(context.Background(), doc, onlineConfig("org"), []string{"main.rs"})

	for i := 1; i < len(issues); i++ {
		if issues[i-1].Line > issues[i].Line {
			t.Fatalf("issues out of order: %v", issues)
		}
	}
}

func TestValidate_ConsistencyIssueAttachesToFirstOccurrence(t *testing.T) {
	lookup := &fakeLookup{members: []string{}, users: map[string]bool{}}
	v := &Validator{Lookup: lookup}
	doc := codeowners.Parse("*.rs @ghost\n*.md @ghost\n")
	issues := v.Validate(context.Background(), doc, onlineConfig("org"), []string{"main.rs", "README.md"})

	if len(issues) != 1 {
		t.Fatalf("expected one issue for the unique owner, got %v", issues)
	}
	if issues[0].Line != 1 {
		t.Errorf("line = %d, want first occurrence (1)", issues[0].Line)
	}
}
