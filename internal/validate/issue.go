// Package validate runs the rule catalogue over a parsed CODEOWNERS document
// and produces an ordered list of typed issues. Offline rules are decidable
// from file content and configuration alone; online rules consult a
// DirectoryLookup. A failing rule yields an issue, never an error: the whole
// file is always fully checked.
package validate

import "encoding/json"

// IssueKind enumerates every issue the validator can produce.
type IssueKind int

const (
	// InvalidSyntax flags a line that failed to parse.
	InvalidSyntax IssueKind = iota
	// DanglingGlobPattern flags a pattern matching no path in the project.
	DanglingGlobPattern
	// DuplicateOwnership flags a pattern defined on more than one line.
	DuplicateOwnership
	// TeamDoesNotMatchOrganization flags a team owner from a foreign organization.
	TeamDoesNotMatchOrganization
	// EmailOwnerForbidden flags an email owner when emails are disallowed.
	EmailOwnerForbidden
	// OnlyGithubTeamOwnerAllowed flags a non-team owner under the teams-only rule.
	OnlyGithubTeamOwnerAllowed
	// OnlyOneOwnerPerEntry flags a rule with multiple owners under the one-owner rule.
	OnlyOneOwnerPerEntry
	// CannotListMembersInTheOrganization reports a failed membership listing.
	CannotListMembersInTheOrganization
	// CannotVerifyUser reports a failed user lookup.
	CannotVerifyUser
	// CannotVerifyTeam reports a failed team lookup.
	CannotVerifyTeam
	// OrganizationDoesNotExist reports that the configured organization is absent.
	OrganizationDoesNotExist
	// TeamDoesNotExist reports a team absent from the organization.
	TeamDoesNotExist
	// OutsiderUser reports a user outside the organization.
	OutsiderUser
	// UserDoesNotExist reports a user handle that does not exist.
	UserDoesNotExist
)

var kindNames = map[IssueKind]string{
	InvalidSyntax:                      "invalid_syntax",
	DanglingGlobPattern:                "dangling_glob_pattern",
	DuplicateOwnership:                 "duplicate_ownership",
	TeamDoesNotMatchOrganization:       "team_does_not_match_organization",
	EmailOwnerForbidden:                "email_owner_forbidden",
	OnlyGithubTeamOwnerAllowed:         "only_github_team_owner_allowed",
	OnlyOneOwnerPerEntry:               "only_one_owner_per_entry",
	CannotListMembersInTheOrganization: "cannot_list_members_in_the_organization",
	CannotVerifyUser:                   "cannot_verify_user",
	CannotVerifyTeam:                   "cannot_verify_team",
	OrganizationDoesNotExist:           "organization_does_not_exist",
	TeamDoesNotExist:                   "team_does_not_exist",
	OutsiderUser:                       "outsider_user",
	UserDoesNotExist:                   "user_does_not_exist",
}

// String returns the snake_case name used in JSON output.
func (k IssueKind) String() string {
	return kindNames[k]
}

// MarshalJSON renders the kind by name rather than by ordinal.
func (k IssueKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Offline reports whether the kind is decidable without a directory lookup.
// Only offline issues are eligible for automated repair.
func (k IssueKind) Offline() bool {
	switch k {
	case InvalidSyntax, DanglingGlobPattern, DuplicateOwnership,
		TeamDoesNotMatchOrganization, EmailOwnerForbidden,
		OnlyGithubTeamOwnerAllowed, OnlyOneOwnerPerEntry:
		return true
	}
	return false
}

// Severity splits issues into confirmed violations and lookup uncertainty.
type Severity int

const (
	// SeverityError is a confirmed violation.
	SeverityError Severity = iota
	// SeverityWarning reports an inability to verify, not a confirmed defect.
	SeverityWarning
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalJSON renders the severity by name rather than by ordinal.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Severity assigns warning to the cannot-verify kinds: a strict inability to
// verify is not equivalent to a confirmed absence.
func (k IssueKind) Severity() Severity {
	switch k {
	case CannotListMembersInTheOrganization, CannotVerifyUser, CannotVerifyTeam:
		return SeverityWarning
	}
	return SeverityError
}

// Issue is one validation finding, attached to a 1-based line index. Issues
// with no meaningful line (organization-level findings) carry line index 0.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Line     int       `json:"line"`
	Message  string    `json:"message"`
	Offline  bool      `json:"offline"`
	Severity Severity  `json:"severity"`
}

func newIssue(kind IssueKind, line int, message string) Issue {
	return Issue{
		Kind:     kind,
		Line:     line,
		Message:  message,
		Offline:  kind.Offline(),
		Severity: kind.Severity(),
	}
}

// HasErrors reports whether any issue in the list is a confirmed violation.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
