package main

import (
	"fmt"
	"os"

	"github.com/dotanuki-labs/canopus/internal/validate"
	"github.com/spf13/cobra"
)

var validatePath string

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validatePath, "path", ".", "Path to the project root")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the CODEOWNERS file of a project",
	Long: `Validate the CODEOWNERS file of a project: syntax, dangling patterns,
duplicated rules, the strictness rules enabled in .github/canopus.toml, and
consistency against the configured GitHub organization unless offline checks
were requested.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	pipe := runPipeline(cmd.Context(), validatePath, false)

	status := "ok"
	if len(pipe.issues) > 0 {
		status = "issues"
	}

	issues := pipe.issues
	if issues == nil {
		issues = []validate.Issue{}
	}

	if humanOutput {
		if len(issues) == 0 {
			fmt.Println("No issues found")
		} else {
			printIssuesHuman(issues)
			fmt.Println("Some issues found")
		}
	} else {
		outputJSON(ValidationResult{
			Status: status,
			File:   pipe.project.Location,
			Issues: issues,
		})
	}

	if validate.HasErrors(issues) {
		os.Exit(ExitIssuesFound)
	}
	return nil
}
