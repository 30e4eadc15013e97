package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tillerhq/tiller/pkg/cli"
)

var conflictsFlags struct {
	format string
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Report conflicts across the loaded rules",
	Long: `Scan the loaded rule set for conflicts.

Two kinds are reported: the same rule name defined in multiple scopes
(the higher scope wins at merge time), and pairs of rules whose content
carries opposing directive keywords such as "always" and "never".

Examples:
  tiller conflicts
  tiller conflicts --format json`,
	RunE: reportConflicts,
}

func init() {
	rootCmd.AddCommand(conflictsCmd)

	conflictsCmd.Flags().StringVar(&conflictsFlags.format, "format", "text", "output format: text, json")
}

func reportConflicts(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.engine.ConflictReport()

	if conflictsFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report)
	}

	if report.Empty() {
		fmt.Println("no conflicts detected")
		return nil
	}

	if len(report.ScopeConflicts) > 0 {
		fmt.Printf("Scope conflicts (%d):\n", len(report.ScopeConflicts))
		for _, sc := range report.ScopeConflicts {
			fmt.Printf("  %s defined in %v, %s scope wins\n", sc.Name, sc.Scopes, sc.Winner)
		}
	}
	if len(report.Contradictions) > 0 {
		fmt.Printf("Possible contradictions (%d):\n", len(report.Contradictions))
		for _, c := range report.Contradictions {
			fmt.Printf("  %s vs %s: %s\n", c.RuleA, c.RuleB, c.Reason)
		}
	}
	return nil
}
