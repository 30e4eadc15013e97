package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tillerhq/tiller/pkg/cli"
	"tillerhq/tiller/pkg/rules"
	"tillerhq/tiller/pkg/rules/parser"
)

var getFlags struct {
	scope  string
	format string
	raw    bool
}

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a single rule",
	Long: `Show one rule by name.

Without --scope, the rule is resolved with scope fallback: project
first, then user, then global.

Examples:
  # Resolve with scope fallback
  tiller get code-style

  # Pin the lookup to one scope
  tiller get code-style --scope user

  # Print the document as it would be written to disk
  tiller get code-style --raw`,
	Args: cobra.ExactArgs(1),
	RunE: getRule,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVar(&getFlags.scope, "scope", "", "look up in one scope only: global, user, project")
	getCmd.Flags().StringVar(&getFlags.format, "format", "text", "output format: text, json")
	getCmd.Flags().BoolVar(&getFlags.raw, "raw", false, "print the serialized rule document")
}

func getRule(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	var rule *rules.Rule
	var found bool
	if getFlags.scope != "" {
		scope, err := rules.ParseScope(getFlags.scope)
		if err != nil {
			return cli.NewCommandError("get", err)
		}
		rule, found = a.engine.GetScoped(name, scope)
	} else {
		rule, found = a.engine.Get(name)
	}
	if !found {
		return cli.NewCommandError("get", fmt.Errorf("rule %q not found", name))
	}

	if getFlags.raw {
		fmt.Print(parser.Serialize(rule))
		return nil
	}
	if getFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rule)
	}

	fmt.Printf("Name:        %s\n", rule.Name)
	fmt.Printf("Description: %s\n", rule.Description)
	fmt.Printf("Scope:       %s\n", rule.Scope)
	fmt.Printf("Inclusion:   %s\n", rule.Inclusion)
	if rule.FileMatchPattern != "" {
		fmt.Printf("Pattern:     %s\n", rule.FileMatchPattern)
	}
	fmt.Printf("Priority:    %d\n", rule.Priority)
	fmt.Printf("Override:    %t\n", rule.Override)
	fmt.Printf("Enabled:     %t\n", rule.Enabled)
	if rule.SourcePath != "" {
		fmt.Printf("Source:      %s\n", rule.SourcePath)
	}
	fmt.Printf("\n%s\n", rule.Content)
	return nil
}
