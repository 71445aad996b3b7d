package codeowners

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// OwnerKind tags the shape of an owner token.
type OwnerKind int

const (
	// OwnerUser is an '@handle' token.
	OwnerUser OwnerKind = iota
	// OwnerTeam is an '@org/slug' token.
	OwnerTeam
	// OwnerEmail is a bare email address.
	OwnerEmail
	// OwnerGroup is a '[label]' token, not verified against GitHub.
	OwnerGroup
)

// Owner is one classified owner token from a rule line.
type Owner struct {
	Kind         OwnerKind
	Handle       string // user handle (OwnerUser)
	Organization string // organization segment (OwnerTeam)
	TeamSlug     string // team segment (OwnerTeam)
	Email        string // address (OwnerEmail)
	Group        string // bracketed label, brackets removed (OwnerGroup)
}

// Owner parsing errors.
var (
	ErrInvalidHandle = errors.New("invalid github handle")
	ErrInvalidTeam   = errors.New("invalid github team handle")
	ErrInvalidOwner  = errors.New("cannot parse owner")
)

// Limits from https://github.com/dead-claudia/github-limits
var (
	handleRegexp = regexp.MustCompile(`^[a-zA-Z\d](-?[a-zA-Z\d]){0,38}$`)
	teamRegexp   = regexp.MustCompile(`^[a-zA-Z\d](-?[a-zA-Z\d]){0,254}$`)
	emailRegexp  = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
)

// ParseOwner classifies a single owner token. The precedence is fixed:
// '@org/slug' before '@handle', before an email address, before a bracketed
// group label. Anything else is an error, which degrades the whole line to
// KindMalformed at the parser level.
func ParseOwner(token string) (Owner, error) {
	switch {
	case strings.HasPrefix(token, "@"):
		stripped := strings.TrimPrefix(token, "@")
		if strings.Contains(stripped, "/") {
			return parseTeam(stripped)
		}
		if !handleRegexp.MatchString(stripped) {
			return Owner{}, fmt.Errorf("%w: %q", ErrInvalidHandle, token)
		}
		return Owner{Kind: OwnerUser, Handle: stripped}, nil
	case emailRegexp.MatchString(token):
		return Owner{Kind: OwnerEmail, Email: token}, nil
	case strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") && len(token) > 2:
		return Owner{Kind: OwnerGroup, Group: token[1 : len(token)-1]}, nil
	default:
		return Owner{}, fmt.Errorf("%w: %q", ErrInvalidOwner, token)
	}
}

func parseTeam(stripped string) (Owner, error) {
	parts := strings.Split(stripped, "/")
	if len(parts) != 2 {
		return Owner{}, fmt.Errorf("%w: %q", ErrInvalidTeam, "@"+stripped)
	}
	org, slug := parts[0], parts[1]
	if !handleRegexp.MatchString(org) || !teamRegexp.MatchString(slug) {
		return Owner{}, fmt.Errorf("%w: %q", ErrInvalidTeam, "@"+stripped)
	}
	return Owner{Kind: OwnerTeam, Organization: org, TeamSlug: slug}, nil
}

// String renders the owner in its source-token form.
func (o Owner) String() string {
	switch o.Kind {
	case OwnerUser:
		return "@" + o.Handle
	case OwnerTeam:
		return "@" + o.Organization + "/" + o.TeamSlug
	case OwnerEmail:
		return o.Email
	default:
		return "[" + o.Group + "]"
	}
}
