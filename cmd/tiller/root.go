package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tiller",
	Short: "Tiller - hierarchically-scoped rules engine",
	Long: `Tiller loads markdown rule documents from global, user, and project
directories and merges the ones that apply to a request into a single
prompt section.

Rules are plain markdown files with frontmatter:

  ---
  name: code-style
  description: TypeScript style conventions
  inclusion: fileMatch
  fileMatchPattern: "**/*.tsx"
  ---
  Prefer functional components.

Higher scopes win on name collisions, priority breaks ties within a
scope, and the merged output is truncated deterministically when it
exceeds the configured size cap.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
