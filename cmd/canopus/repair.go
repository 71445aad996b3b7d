package main

import (
	"fmt"

	"github.com/dotanuki-labs/canopus/internal/repair"
	"github.com/dotanuki-labs/canopus/internal/validate"
	"github.com/spf13/cobra"
)

var (
	repairPath        string
	repairDryRun      bool
	repairRemoveLines bool
)

func init() {
	rootCmd.AddCommand(repairCmd)
	repairCmd.Flags().StringVar(&repairPath, "path", ".", "Path to the project root")
	repairCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "Preview the repair without writing the file")
	repairCmd.Flags().BoolVar(&repairRemoveLines, "remove-lines", false, "Delete offending lines instead of commenting them out")
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair the CODEOWNERS file of a project",
	Long: `Repair the CODEOWNERS file of a project by neutralizing the lines with
locally-decidable issues. The default policy comments offending lines out,
keeping their content visible; --remove-lines deletes them instead. Only
offline checks run here: issues requiring a directory lookup are reported by
validate but never auto-repaired.`,
	RunE: runRepair,
}

func runRepair(cmd *cobra.Command, args []string) error {
	pipe := runPipeline(cmd.Context(), repairPath, true)

	policy := repair.PolicyPreserve
	if repairRemoveLines {
		policy = repair.PolicyRemove
	}

	plan := repair.NewPlan(pipe.doc, pipe.issues, policy)
	touched := plan.LinesTouched()

	if len(touched) == 0 {
		if humanOutput {
			fmt.Println("Nothing to repair")
		} else {
			outputJSON(RepairResult{Status: "nothing_to_repair", File: pipe.project.Location})
		}
		return nil
	}

	if repairDryRun {
		if humanOutput {
			fmt.Println("Dry-run repairing...")
			for _, issue := range firstIssuePerLine(pipe.issues, touched) {
				fmt.Printf("L%d will be repaired (%s)\n", issue.Line, issue.Message)
			}
			fmt.Println()
			fmt.Println("More issues can exist for every line above")
		} else {
			outputJSON(RepairResult{
				Status: "preview",
				File:   pipe.project.Location,
				Lines:  touched,
				Issues: firstIssuePerLine(pipe.issues, touched),
			})
		}
		return nil
	}

	content := repair.Apply(pipe.doc, plan)
	if err := repair.Write(pipe.project.Location, content); err != nil {
		exitWithError(ExitError, "writing repaired CODEOWNERS: %v", err)
	}

	if humanOutput {
		fmt.Printf("Repaired %d lines in %s\n", len(touched), pipe.project.Location)
	} else {
		outputJSON(RepairResult{
			Status: "repaired",
			File:   pipe.project.Location,
			Lines:  touched,
		})
	}
	return nil
}

// firstIssuePerLine picks one representative issue for each repaired line,
// in line order. More issues may exist per line; the preview names one.
func firstIssuePerLine(issues []validate.Issue, lines []int) []validate.Issue {
	repaired := make(map[int]bool, len(lines))
	for _, line := range lines {
		repaired[line] = true
	}

	var picked []validate.Issue
	seen := make(map[int]bool, len(lines))
	for _, issue := range issues {
		if !repaired[issue.Line] || seen[issue.Line] {
			continue
		}
		seen[issue.Line] = true
		picked = append(picked, issue)
	}
	return picked
}
