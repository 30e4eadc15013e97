package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"tillerhq/tiller/pkg/cli"
	"tillerhq/tiller/pkg/rules"
)

var renderFlags struct {
	files     []string
	refs      []string
	query     string
	sessionID string
	vars      []string
	trace     bool
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the prompt section for a request context",
	Long: `Evaluate the loaded rules against a request context and print the
merged prompt section.

The context is assembled from flags: --file adds a file path in scope
for the request (repeatable), --ref marks a rule as manually referenced,
and --var attaches a key=value request variable.

Examples:
  # Always-included rules only
  tiller render

  # Rules matching the open files
  tiller render --file src/app.tsx --file src/lib/api.ts

  # Pull in a manual rule and print the audit trace
  tiller render --ref security-review --trace`,
	RunE: renderRules,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringArrayVar(&renderFlags.files, "file", nil, "file path in scope for the request (repeatable)")
	renderCmd.Flags().StringArrayVar(&renderFlags.refs, "ref", nil, "manually referenced rule name (repeatable)")
	renderCmd.Flags().StringVar(&renderFlags.query, "query", "", "request text")
	renderCmd.Flags().StringVar(&renderFlags.sessionID, "session-id", "", "session identifier recorded in the trace")
	renderCmd.Flags().StringArrayVar(&renderFlags.vars, "var", nil, "request variable as key=value (repeatable)")
	renderCmd.Flags().BoolVar(&renderFlags.trace, "trace", false, "print the evaluation trace as JSON instead of the prompt section")
}

func renderRules(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	mctx := &rules.MatchContext{
		CurrentFiles: renderFlags.files,
		Query:        renderFlags.query,
		SessionID:    renderFlags.sessionID,
		ManualRules:  renderFlags.refs,
	}
	for _, kv := range renderFlags.vars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return cli.NewCommandError("render", fmt.Errorf("invalid --var %q, expected key=value", kv))
		}
		if mctx.Variables == nil {
			mctx.Variables = make(map[string]string)
		}
		mctx.Variables[key] = value
	}

	evaluation, err := a.engine.Evaluate(cmd.Context(), mctx, nil)
	if err != nil {
		return cli.NewCommandError("render", err)
	}

	if renderFlags.trace {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, evaluation.Trace)
	}
	if evaluation.PromptSection == "" {
		fmt.Fprintln(os.Stderr, "no rules matched")
		return nil
	}
	fmt.Print(evaluation.PromptSection)
	return nil
}
