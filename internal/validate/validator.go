package validate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dotanuki-labs/canopus/internal/codeowners"
	"github.com/dotanuki-labs/canopus/internal/config"
	"github.com/dotanuki-labs/canopus/internal/pattern"
)

// DefaultMaxLookups bounds concurrent directory lookups so a large owners
// list does not hammer the GitHub API.
const DefaultMaxLookups = 4

// Validator runs the rule catalogue. Lookup may be nil, in which case only
// offline rules run; cfg.OfflineOnly forces the same behavior with a lookup
// present.
type Validator struct {
	Lookup     DirectoryLookup
	MaxLookups int
}

// Validate checks the document against every applicable rule and returns the
// issues ordered by line index, ties broken by rule discovery order.
func (v *Validator) Validate(ctx context.Context, doc *codeowners.Document, cfg config.Effective, paths []string) []Issue {
	var issues []Issue
	issues = append(issues, checkSyntax(doc)...)
	issues = append(issues, checkDanglingPatterns(doc, paths)...)
	issues = append(issues, checkDuplicateOwnership(doc)...)
	issues = append(issues, checkTeamOrganization(doc, cfg)...)
	issues = append(issues, checkEmailOwners(doc, cfg)...)
	issues = append(issues, checkTeamsOnly(doc, cfg)...)
	issues = append(issues, checkOneOwnerPerEntry(doc, cfg)...)

	if v.Lookup != nil && !cfg.OfflineOnly {
		issues = append(issues, v.checkDirectoryConsistency(ctx, doc, cfg)...)
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Line < issues[j].Line })
	return issues
}

func checkSyntax(doc *codeowners.Document) []Issue {
	var issues []Issue
	for _, line := range doc.Lines {
		if line.Kind == codeowners.KindMalformed {
			message := fmt.Sprintf("cannot parse ownership rule: %s", strings.TrimSpace(line.Raw))
			issues = append(issues, newIssue(InvalidSyntax, line.Number, message))
		}
	}
	return issues
}

// checkDanglingPatterns covers malformed lines too: a line with a broken
// owner token can still carry a pattern worth checking against the tree.
func checkDanglingPatterns(doc *codeowners.Document, paths []string) []Issue {
	var issues []Issue
	for _, line := range doc.Lines {
		if line.Pattern == nil {
			continue
		}
		raw := line.Pattern.Raw
		if !pattern.HasAnyMatch(raw, paths) {
			message := fmt.Sprintf("%s does not match any project path", raw)
			issues = append(issues, newIssue(DanglingGlobPattern, line.Number, message))
		}
	}
	return issues
}

// checkDuplicateOwnership groups rules by normalized pattern and flags every
// occurrence except the last one, which is the rule GitHub actually honors.
func checkDuplicateOwnership(doc *codeowners.Document) []Issue {
	var order []string
	occurrences := make(map[string][]int)
	patterns := make(map[string]string)
	for _, line := range doc.RuleLines() {
		key := pattern.Normalize(line.Rule.Pattern.Raw)
		if _, seen := occurrences[key]; !seen {
			order = append(order, key)
			patterns[key] = line.Rule.Pattern.Raw
		}
		occurrences[key] = append(occurrences[key], line.Number)
	}

	var issues []Issue
	for _, key := range order {
		lines := occurrences[key]
		if len(lines) < 2 {
			continue
		}
		message := fmt.Sprintf("%s defined multiple times : lines %s", patterns[key], formatLines(lines))
		for _, line := range lines[:len(lines)-1] {
			issues = append(issues, newIssue(DuplicateOwnership, line, message))
		}
	}
	return issues
}

func formatLines(lines []int) string {
	formatted := make([]string, len(lines))
	for i, line := range lines {
		formatted[i] = strconv.Itoa(line)
	}
	return "[" + strings.Join(formatted, ", ") + "]"
}

func checkTeamOrganization(doc *codeowners.Document, cfg config.Effective) []Issue {
	var issues []Issue
	for _, line := range doc.RuleLines() {
		for _, owner := range line.Rule.Owners {
			if owner.Kind == codeowners.OwnerTeam && owner.Organization != cfg.Organization {
				message := fmt.Sprintf("'%s' team does not match the '%s' organization", owner, cfg.Organization)
				issues = append(issues, newIssue(TeamDoesNotMatchOrganization, line.Number, message))
			}
		}
	}
	return issues
}

func checkEmailOwners(doc *codeowners.Document, cfg config.Effective) []Issue {
	if !cfg.ForbidEmailOwners {
		return nil
	}
	var issues []Issue
	for _, line := range doc.RuleLines() {
		for _, owner := range line.Rule.Owners {
			if owner.Kind == codeowners.OwnerEmail {
				message := fmt.Sprintf("'%s' email owner is not allowed", owner.Email)
				issues = append(issues, newIssue(EmailOwnerForbidden, line.Number, message))
			}
		}
	}
	return issues
}

func checkTeamsOnly(doc *codeowners.Document, cfg config.Effective) []Issue {
	if !cfg.EnforceGithubTeams {
		return nil
	}
	var issues []Issue
	for _, line := range doc.RuleLines() {
		for _, owner := range line.Rule.Owners {
			if owner.Kind != codeowners.OwnerTeam {
				message := fmt.Sprintf("'%s' is not a github team owner", owner)
				issues = append(issues, newIssue(OnlyGithubTeamOwnerAllowed, line.Number, message))
			}
		}
	}
	return issues
}

func checkOneOwnerPerEntry(doc *codeowners.Document, cfg config.Effective) []Issue {
	if !cfg.EnforceOneOwnerPerLine {
		return nil
	}
	var issues []Issue
	for _, line := range doc.RuleLines() {
		if count := len(line.Rule.Owners); count > 1 {
			message := fmt.Sprintf("expected a single owner per entry, found %d", count)
			issues = append(issues, newIssue(OnlyOneOwnerPerEntry, line.Number, message))
		}
	}
	return issues
}

// ownerRef is a unique GitHub owner plus the line it first appears on, which
// is where its consistency issues are attached.
type ownerRef struct {
	owner codeowners.Owner
	line  int
}

// checkDirectoryConsistency verifies users and teams against the remote
// directory. Lookups for distinct owners run concurrently under MaxLookups;
// results are collected per owner and appended in source order, so completion
// order is never observable. A single failing lookup is isolated to the issue
// it produces.
func (v *Validator) checkDirectoryConsistency(ctx context.Context, doc *codeowners.Document, cfg config.Effective) []Issue {
	owners := uniqueGithubOwners(doc, cfg.Organization)
	if len(owners) == 0 {
		return nil
	}

	var issues []Issue
	members, err := v.Lookup.OrgMembers(ctx, cfg.Organization)
	membersKnown := err == nil
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			message := fmt.Sprintf("'%s' organization does not exist", cfg.Organization)
			return []Issue{newIssue(OrganizationDoesNotExist, 0, message)}
		}
		message := fmt.Sprintf("failed to list members that belong to '%s' organization", cfg.Organization)
		issues = append(issues, newIssue(CannotListMembersInTheOrganization, 0, message))
	}

	memberSet := make(map[string]bool, len(members))
	for _, member := range members {
		memberSet[member] = true
	}

	results := make([][]Issue, len(owners))
	sem := make(chan struct{}, v.maxLookups())
	var wg sync.WaitGroup
	for i, ref := range owners {
		wg.Add(1)
		go func(i int, ref ownerRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = v.checkOwner(ctx, ref, cfg, memberSet, membersKnown)
		}(i, ref)
	}
	wg.Wait()

	for _, result := range results {
		issues = append(issues, result...)
	}
	return issues
}

func (v *Validator) checkOwner(ctx context.Context, ref ownerRef, cfg config.Effective, memberSet map[string]bool, membersKnown bool) []Issue {
	switch ref.owner.Kind {
	case codeowners.OwnerUser:
		return v.checkUser(ctx, ref, memberSet, membersKnown)
	case codeowners.OwnerTeam:
		return v.checkTeam(ctx, ref, cfg.Organization)
	default:
		return nil
	}
}

func (v *Validator) checkUser(ctx context.Context, ref ownerRef, memberSet map[string]bool, membersKnown bool) []Issue {
	handle := ref.owner.Handle
	if membersKnown && memberSet[handle] {
		return nil
	}

	exists, err := v.Lookup.UserExists(ctx, handle)
	if err != nil {
		message := fmt.Sprintf("cannot confirm if user '%s' exists", handle)
		return []Issue{newIssue(CannotVerifyUser, ref.line, message)}
	}
	if !exists {
		message := fmt.Sprintf("'%s' user does not exist", handle)
		return []Issue{newIssue(UserDoesNotExist, ref.line, message)}
	}
	if membersKnown {
		message := fmt.Sprintf("'%s' user does not belong to this organization", handle)
		return []Issue{newIssue(OutsiderUser, ref.line, message)}
	}

	// The user exists but membership could not be listed; the listing
	// failure was already reported once for the whole file.
	return nil
}

func (v *Validator) checkTeam(ctx context.Context, ref ownerRef, organization string) []Issue {
	slug := ref.owner.TeamSlug
	exists, err := v.Lookup.TeamExists(ctx, organization, slug)
	if err != nil {
		message := fmt.Sprintf("cannot confirm whether '%s/%s' team exists", organization, slug)
		return []Issue{newIssue(CannotVerifyTeam, ref.line, message)}
	}
	if !exists {
		message := fmt.Sprintf("'%s' team does not belong to '%s' organization", slug, organization)
		return []Issue{newIssue(TeamDoesNotExist, ref.line, message)}
	}
	return nil
}

func (v *Validator) maxLookups() int {
	if v.MaxLookups > 0 {
		return v.MaxLookups
	}
	return DefaultMaxLookups
}

// uniqueGithubOwners collects users and teams in first-appearance order.
// Teams from a foreign organization are skipped: the offline organization
// check already flagged them, and the remote lookup could only 404.
func uniqueGithubOwners(doc *codeowners.Document, organization string) []ownerRef {
	var refs []ownerRef
	seen := make(map[codeowners.Owner]bool)
	for _, line := range doc.RuleLines() {
		for _, owner := range line.Rule.Owners {
			switch owner.Kind {
			case codeowners.OwnerUser:
			case codeowners.OwnerTeam:
				if owner.Organization != organization {
					continue
				}
			default:
				continue
			}
			if seen[owner] {
				continue
			}
			seen[owner] = true
			refs = append(refs, ownerRef{owner: owner, line: line.Number})
		}
	}
	return refs
}
