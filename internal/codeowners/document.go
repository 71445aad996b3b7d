// Package codeowners models a GitHub CODEOWNERS file as an ordered document
// of classified lines. Parsing is tolerant: a line that cannot be understood
// degrades to a malformed line carrying its raw text, so the document always
// reconstructs the original file byte-for-byte.
package codeowners

import "strings"

// LineKind classifies a single physical line of a CODEOWNERS file.
type LineKind int

const (
	// KindRule is a path pattern followed by zero or more owners.
	KindRule LineKind = iota
	// KindComment is a line whose first non-whitespace character is '#'.
	KindComment
	// KindBlank is an empty or whitespace-only line.
	KindBlank
	// KindMalformed is a line that failed to parse as any of the above.
	KindMalformed
)

// String returns a short name for the kind, used in issue output.
func (k LineKind) String() string {
	switch k {
	case KindRule:
		return "rule"
	case KindComment:
		return "comment"
	case KindBlank:
		return "blank"
	default:
		return "malformed"
	}
}

// Line is one physical line of the file. Raw holds the original text without
// its terminator; EOL holds the terminator ("\n", "\r\n", or "" for an
// unterminated final line).
type Line struct {
	Number  int    // 1-based position in the file
	Raw     string // original text, terminator excluded
	EOL     string // original terminator
	Kind    LineKind
	Rule    *Rule  // set when Kind == KindRule
	Comment string // set when Kind == KindComment, text after '#'

	// Pattern is set for rule lines and for malformed lines whose path
	// token still parsed: a line with a broken owner can still carry a
	// perfectly checkable pattern.
	Pattern *Pattern
}

// Rule is an ownership rule: a path pattern plus its owners, in source order.
type Rule struct {
	Pattern       Pattern
	Owners        []Owner
	InlineComment string // trailing '# ...' text, empty when absent
}

// Pattern is an ignore-style glob taken from a rule line.
type Pattern struct {
	Raw      string // glob body, quotes removed
	Anchored bool   // leading '/'
	DirOnly  bool   // trailing '/'
}

// ParsePattern splits a path token into its glob body and the anchoring
// attributes CODEOWNERS assigns to leading and trailing slashes.
func ParsePattern(token string) Pattern {
	return Pattern{
		Raw:      token,
		Anchored: strings.HasPrefix(token, "/"),
		DirOnly:  strings.HasSuffix(token, "/") && len(token) > 1,
	}
}

// Document is the ordered sequence of lines parsed from one file.
type Document struct {
	Lines []Line
}

// Text reassembles the document. With no repairs applied the result is the
// original input, byte-for-byte.
func (d *Document) Text() string {
	var b strings.Builder
	for _, line := range d.Lines {
		b.WriteString(line.Raw)
		b.WriteString(line.EOL)
	}
	return b.String()
}

// RuleLines returns the subset of lines that parsed as ownership rules.
func (d *Document) RuleLines() []Line {
	var rules []Line
	for _, line := range d.Lines {
		if line.Kind == KindRule {
			rules = append(rules, line)
		}
	}
	return rules
}
