// Package project locates the CODEOWNERS file for a project and enumerates
// the file paths its ownership patterns are matched against.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ConventionalLocations are the paths GitHub checks for a CODEOWNERS file,
// relative to the project root.
var ConventionalLocations = []string{
	".github/CODEOWNERS",
	"docs/CODEOWNERS",
	"CODEOWNERS",
}

// Discovery errors.
var (
	ErrNoCodeowners       = errors.New("no CODEOWNERS definition found in the project")
	ErrMultipleCodeowners = errors.New("found multiple CODEOWNERS definitions")
)

// Context is a resolved project: its root, the CODEOWNERS location, and the
// file contents as read at discovery time.
type Context struct {
	Root     string
	Location string
	Contents string
}

// Locate resolves the CODEOWNERS file for the project at root. Exactly one of
// the conventional locations must exist: none is an error, and so is more
// than one, since GitHub would silently pick a winner.
func Locate(root string) (*Context, error) {
	var found []string
	for _, location := range ConventionalLocations {
		candidate := filepath.Join(root, filepath.FromSlash(location))
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, candidate)
	}

	if len(found) == 0 {
		return nil, ErrNoCodeowners
	}
	if len(found) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrMultipleCodeowners, strings.Join(found, ", "))
	}

	data, err := os.ReadFile(found[0])
	if err != nil {
		return nil, fmt.Errorf("reading CODEOWNERS: %w", err)
	}

	return &Context{Root: root, Location: found[0], Contents: string(data)}, nil
}

// WalkFiles enumerates every file under root as a slash-separated path
// relative to root, skipping the .git directory.
func WalkFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking project tree: %w", err)
	}
	return paths, nil
}
