package codeowners

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Rule parsing errors. These never escape Parse; they only explain why a
// line was degraded to KindMalformed.
var (
	ErrEmptyPattern      = errors.New("expected non-empty path pattern")
	ErrUnterminatedQuote = errors.New("unterminated quoted path")
	ErrInvalidPath       = errors.New("invalid path token")
)

// Parse turns raw file text into a Document. It is a total function: no input
// fails, at worst a line is classified as KindMalformed with its raw text
// kept verbatim.
func Parse(text string) *Document {
	doc := &Document{}
	for i, physical := range splitLines(text) {
		line := Line{
			Number: i + 1,
			Raw:    physical.raw,
			EOL:    physical.eol,
		}

		trimmed := strings.TrimSpace(physical.raw)
		switch {
		case trimmed == "":
			line.Kind = KindBlank
		case strings.HasPrefix(trimmed, "#"):
			line.Kind = KindComment
			line.Comment = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		default:
			rule, err := parseRule(trimmed)
			if err != nil {
				line.Kind = KindMalformed
				if token, _, tokenErr := pathToken(trimmed); tokenErr == nil {
					pat := ParsePattern(token)
					line.Pattern = &pat
				}
			} else {
				line.Kind = KindRule
				line.Rule = rule
				line.Pattern = &rule.Pattern
			}
		}

		doc.Lines = append(doc.Lines, line)
	}
	return doc
}

type physicalLine struct {
	raw string // terminator excluded
	eol string // "\n", "\r\n", or "" on an unterminated final line
}

// splitLines splits text into physical lines, remembering each terminator so
// the document can reproduce the input exactly.
func splitLines(text string) []physicalLine {
	var lines []physicalLine
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		raw, eol := text[start:i], "\n"
		if strings.HasSuffix(raw, "\r") {
			raw, eol = raw[:len(raw)-1], "\r\n"
		}
		lines = append(lines, physicalLine{raw: raw, eol: eol})
		start = i + 1
	}
	if start < len(text) {
		lines = append(lines, physicalLine{raw: text[start:]})
	}
	return lines
}

// parseRule parses a trimmed, non-blank, non-comment line as an ownership
// rule: a path token followed by zero or more owner tokens, optionally closed
// by a trailing '# ...' comment. Any token that fails to parse fails the
// whole line.
func parseRule(trimmed string) (*Rule, error) {
	token, rest, err := pathToken(trimmed)
	if err != nil {
		return nil, err
	}

	rule := &Rule{Pattern: ParsePattern(token)}

	fields := strings.Fields(rest)
	for i, field := range fields {
		if strings.HasPrefix(field, "#") {
			comment := strings.Join(fields[i:], " ")
			rule.InlineComment = strings.TrimSpace(strings.TrimLeft(comment, "#"))
			break
		}
		owner, err := ParseOwner(field)
		if err != nil {
			return nil, err
		}
		rule.Owners = append(rule.Owners, owner)
	}

	return rule, nil
}

// pathToken consumes the leading path token: either a double-quoted string
// allowing \" and \\ escapes and embedded whitespace, or an unquoted run of
// non-whitespace, non-'#', non-'"' characters.
func pathToken(s string) (token, rest string, err error) {
	if s[0] == '"' {
		return quotedPathToken(s)
	}

	end := len(s)
	for i, r := range s {
		if unicode.IsSpace(r) {
			end = i
			break
		}
		if r == '#' || r == '"' {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
	}
	return s[:end], s[end:], nil
}

func quotedPathToken(s string) (token, rest string, err error) {
	var b strings.Builder
	i := 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", "", ErrUnterminatedQuote
			}
			b.WriteByte(s[i+1])
			i += 2
		case '"':
			if b.Len() == 0 {
				return "", "", ErrEmptyPattern
			}
			return b.String(), s[i+1:], nil
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return "", "", ErrUnterminatedQuote
}
