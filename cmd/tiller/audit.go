package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"tillerhq/tiller/pkg/cli"
	"tillerhq/tiller/pkg/config"
	"tillerhq/tiller/pkg/rules/audit"
)

var auditFlags struct {
	session string
	since   time.Duration
	limit   int
	format  string
	maxAge  time.Duration
	keep    int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query stored evaluation traces",
	Long: `Query and prune the evaluation trace store.

Every engine evaluation records a trace: which rules were evaluated,
matched, skipped, and merged, and why. With a persistent audit backend
configured, these commands inspect and maintain that history.

Examples:
  # Recent traces for one session
  tiller audit list --session sess-42 --limit 20

  # A single trace by request ID
  tiller audit get 4f3c2a1e-...

  # Drop traces older than 30 days
  tiller audit prune --max-age 720h`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluation traces",
	RunE:  listTraces,
}

var auditGetCmd = &cobra.Command{
	Use:   "get <request-id>",
	Short: "Show one evaluation trace",
	Args:  cobra.ExactArgs(1),
	RunE:  getTrace,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old evaluation traces",
	RunE:  pruneTraces,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditGetCmd, auditPruneCmd)

	auditListCmd.Flags().StringVar(&auditFlags.session, "session", "", "filter by session ID")
	auditListCmd.Flags().DurationVar(&auditFlags.since, "since", 0, "only traces newer than this age (e.g. 24h)")
	auditListCmd.Flags().IntVar(&auditFlags.limit, "limit", 50, "maximum traces to return")
	auditListCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json")

	auditPruneCmd.Flags().DurationVar(&auditFlags.maxAge, "max-age", 0, "delete traces older than this age")
	auditPruneCmd.Flags().IntVar(&auditFlags.keep, "keep", 0, "keep at most this many traces")
}

// openAudit opens the configured audit backend for direct access.
func openAudit() (audit.Storage, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if cfg.Audit.Backend != "sqlite" {
		return nil, cli.NewConfigError("audit.backend",
			fmt.Sprintf("audit commands need a persistent backend, configured backend is %q", cfg.Audit.Backend))
	}
	sqliteCfg := audit.DefaultSQLiteConfig()
	sqliteCfg.Path = cfg.Audit.Path
	return audit.NewSQLiteStorage(sqliteCfg)
}

func listTraces(cmd *cobra.Command, args []string) error {
	storage, err := openAudit()
	if err != nil {
		return err
	}
	defer storage.Close()

	q := &audit.Query{
		SessionID: auditFlags.session,
		Limit:     auditFlags.limit,
	}
	if auditFlags.since > 0 {
		q.Since = time.Now().Add(-auditFlags.since)
	}

	traces, err := storage.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("audit list", err)
	}

	if auditFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, traces)
	}

	if len(traces) == 0 {
		fmt.Println("no traces found")
		return nil
	}
	for _, trace := range traces {
		fmt.Printf("%s  %s  session=%s  matched=%d  final=%d  size=%d\n",
			trace.Timestamp.Format(time.RFC3339), trace.RequestID, trace.SessionID,
			len(trace.Matched), len(trace.FinalRules), trace.TotalSize)
	}
	return nil
}

func getTrace(cmd *cobra.Command, args []string) error {
	storage, err := openAudit()
	if err != nil {
		return err
	}
	defer storage.Close()

	trace, found, err := storage.Get(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("audit get", err)
	}
	if !found {
		return cli.NewCommandError("audit get", fmt.Errorf("trace %q not found", args[0]))
	}
	return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, trace)
}

func pruneTraces(cmd *cobra.Command, args []string) error {
	if auditFlags.maxAge <= 0 && auditFlags.keep <= 0 {
		return cli.NewCommandError("audit prune", fmt.Errorf("nothing to do, set --max-age and/or --keep"))
	}

	storage, err := openAudit()
	if err != nil {
		return err
	}
	defer storage.Close()

	pruner := audit.NewPruner(storage, &audit.RetentionConfig{
		MaxAge:     auditFlags.maxAge,
		MaxRecords: auditFlags.keep,
	})
	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}
	fmt.Printf("deleted %d trace(s)\n", deleted)
	return nil
}
