package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success, no Error-class issues
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing CODEOWNERS, bad config, missing token)
	ExitIssuesFound = 3 // Validation found Error-class issues
)
