// Package pattern evaluates CODEOWNERS path patterns against project file
// paths. The glob engine is doublestar; this package only translates the
// anchoring conventions CODEOWNERS inherits from ignore files: a leading '/'
// pins the pattern to the project root, a trailing '/' restricts it to a
// directory and its contents, and a pattern without an interior '/' floats to
// any depth.
package pattern

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matches reports whether a CODEOWNERS pattern matches the given
// slash-separated file path, relative to the project root.
func Matches(pat, path string) bool {
	for _, glob := range globsFor(pat) {
		if ok, err := doublestar.Match(glob, path); err == nil && ok {
			return true
		}
	}
	return false
}

// HasAnyMatch walks the supplied paths once and short-circuits on the first
// match. It is the building block for dangling-pattern detection.
func HasAnyMatch(pat string, paths []string) bool {
	globs := globsFor(pat)
	for _, path := range paths {
		for _, glob := range globs {
			if ok, err := doublestar.Match(glob, path); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Normalize returns the canonical form of a pattern, used as the equality key
// for duplicate detection: the root-relative glob body with the directory
// marker folded in.
func Normalize(pat string) string {
	body, dirOnly := splitPattern(pat)
	if dirOnly {
		return body + "/"
	}
	return body
}

// globsFor expands a CODEOWNERS pattern into the doublestar globs to try
// against a file path. Two globs are usually produced: the body itself, and
// the body extended with '/**' so that a pattern naming a directory matches
// everything beneath it. Directory-only patterns keep just the extended form.
func globsFor(pat string) []string {
	body, dirOnly := splitPattern(pat)
	if body == "" {
		return nil
	}
	if dirOnly {
		return []string{body + "/**"}
	}
	return []string{body, body + "/**"}
}

// splitPattern strips the anchoring markers: the leading '/' (anchored
// patterns are root-relative, as are the candidate paths), the trailing '/'
// (directory-only restriction), and prefixes '**/' onto patterns without an
// interior slash so they match at any depth.
func splitPattern(pat string) (body string, dirOnly bool) {
	body = pat
	if strings.HasSuffix(body, "/") && len(body) > 1 {
		dirOnly = true
		body = body[:len(body)-1]
	}
	anchored := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	if !anchored && !strings.Contains(body, "/") {
		body = "**/" + body
	}
	return body, dirOnly
}
