package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/dotanuki-labs/canopus/internal/codeowners"
	"github.com/dotanuki-labs/canopus/internal/config"
	"github.com/dotanuki-labs/canopus/internal/github"
	"github.com/dotanuki-labs/canopus/internal/project"
	"github.com/dotanuki-labs/canopus/internal/validate"
)

// pipeline is the resolved state shared by the validate and repair commands.
type pipeline struct {
	project *project.Context
	doc     *codeowners.Document
	issues  []validate.Issue
}

// runPipeline locates the CODEOWNERS file, loads configuration, and runs
// validation. Fatal conditions (no file, ambiguous files, bad config, missing
// token) exit here with an explicit message; they are never folded into the
// issue list. forceOffline suppresses online checks regardless of
// configuration, which is what repair wants: it only ever acts on offline
// issues.
func runPipeline(ctx context.Context, path string, forceOffline bool) *pipeline {
	root, err := filepath.Abs(path)
	if err != nil {
		exitWithError(ExitError, "resolving project path: %v", err)
	}

	proj, err := project.Locate(root)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	effective := cfg.Effective()
	if forceOffline {
		effective.OfflineOnly = true
	}

	paths, err := project.WalkFiles(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	var lookup validate.DirectoryLookup
	if !effective.OfflineOnly {
		client, err := github.NewClient()
		if err != nil {
			if errors.Is(err, github.ErrMissingToken) {
				exitWithError(ExitConfigError, "%v", err)
			}
			exitWithError(ExitError, "%v", err)
		}
		lookup = client
	}

	doc := codeowners.Parse(proj.Contents)
	validator := &validate.Validator{Lookup: lookup}
	issues := validator.Validate(ctx, doc, effective, paths)

	return &pipeline{project: proj, doc: doc, issues: issues}
}
