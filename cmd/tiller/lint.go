package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tillerhq/tiller/pkg/cli"
	"tillerhq/tiller/pkg/config"
	"tillerhq/tiller/pkg/rules"
	"tillerhq/tiller/pkg/rules/parser"
)

var lintFlags struct {
	scope string
}

var lintCmd = &cobra.Command{
	Use:   "lint <file>...",
	Short: "Validate rule documents",
	Long: `Parse and validate rule documents without loading them into the store.

Each file is checked for frontmatter syntax, required fields, and field
value constraints. The command exits non-zero if any file fails.

Examples:
  # Validate a single document
  tiller lint .tiller/rules/code-style.md

  # Validate a directory's worth
  tiller lint .tiller/rules/*.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVar(&lintFlags.scope, "scope", "project", "scope to validate against: global, user, project")
}

func lintRules(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	scope, err := rules.ParseScope(lintFlags.scope)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}

	p := parser.NewParser().WithMaxDocumentSize(cfg.Rules.MaxDocumentSize)

	failures := 0
	for _, path := range args {
		if _, err := p.ParseFile(path, scope); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
			continue
		}
		fmt.Printf("✓ %s\n", path)
	}

	if failures > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("%d of %d file(s) failed validation", failures, len(args)))
	}
	fmt.Printf("%d file(s) valid\n", len(args))
	return nil
}
