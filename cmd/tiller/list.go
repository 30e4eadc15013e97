package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"tillerhq/tiller/pkg/cli"
	"tillerhq/tiller/pkg/rules"
)

var listFlags struct {
	scope  string
	format string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded rules",
	Long: `List the rules loaded from the configured directories.

Examples:
  # List every rule
  tiller list

  # List project-scope rules only
  tiller list --scope project

  # Machine-readable output
  tiller list --format json`,
	RunE: listRules,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFlags.scope, "scope", "", "filter by scope: global, user, project")
	listCmd.Flags().StringVar(&listFlags.format, "format", "text", "output format: text, json")
}

func listRules(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var ruleList []*rules.Rule
	if listFlags.scope != "" {
		scope, err := rules.ParseScope(listFlags.scope)
		if err != nil {
			return cli.NewCommandError("list", err)
		}
		ruleList = a.engine.ListScope(scope)
	} else {
		ruleList = a.engine.List()
	}

	if listFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, ruleList)
	}

	if len(ruleList) == 0 {
		fmt.Println("no rules loaded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCOPE\tINCLUSION\tPRIORITY\tENABLED\tDESCRIPTION")
	for _, rule := range ruleList {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
			rule.Name, rule.Scope, rule.Inclusion, rule.Priority, rule.Enabled, rule.Description)
	}
	return w.Flush()
}
