package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dotanuki-labs/canopus/internal/validate"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationResult is the response for the validate command.
type ValidationResult struct {
	Status string           `json:"status"`
	File   string           `json:"file"`
	Issues []validate.Issue `json:"issues"`
}

// RepairResult is the response for the repair command.
type RepairResult struct {
	Status string           `json:"status"`
	File   string           `json:"file"`
	Lines  []int            `json:"lines,omitempty"`
	Issues []validate.Issue `json:"issues,omitempty"`
}

// printIssuesHuman prints issues the way the validate command renders them
// for people: one line per issue, ordered by line index.
func printIssuesHuman(issues []validate.Issue) {
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Printf("[%s] L%d : %s\n", issue.Severity, issue.Line, issue.Message)
		} else {
			fmt.Printf("[%s] %s\n", issue.Severity, issue.Message)
		}
	}
}
