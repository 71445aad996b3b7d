// Package main provides the canopus CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "canopus",
	Short: "Validate and repair GitHub CODEOWNERS files",
	Long: `canopus checks a project's CODEOWNERS file for structural problems,
strictness-rule violations, and consistency against a GitHub organization,
and can rewrite the file to neutralize the problems it can decide locally.

All commands output JSON by default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// GITHUB_TOKEN may live in a .env next to the working directory
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
