package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tckrunner/internal/config"
	"github.com/ppiankov/tckrunner/internal/state"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs from the history store",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := historyDBPath(dbPath)
			if err != nil {
				return err
			}
			return listRuns(path, limit)
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "history-db", "", "SQLite run-history database")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the failures recorded for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := historyDBPath(dbPath)
			if err != nil {
				return err
			}
			return showRun(path, args[0])
		},
	}
	cmd.AddCommand(show)

	return cmd
}

func historyDBPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := config.LoadSettings(configFile)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.HistoryDB == "" {
		return "", fmt.Errorf("no history database configured (set history_db or --history-db)")
	}
	return cfg.HistoryDB, nil
}

func listRuns(dbPath string, limit int) error {
	store, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	runs, err := store.Runs(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tWHEN\tTESTS\tPASSED\tFAILED\tCASES\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d/%d\t%s\n",
			r.RunID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Passed+r.Failed,
			r.Passed,
			r.Failed,
			r.CasePassed, r.CasePassed+r.CaseFailed,
			(time.Duration(r.DurationMS) * time.Millisecond).Truncate(time.Millisecond),
		)
	}
	return w.Flush()
}

func showRun(dbPath, runID string) error {
	store, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	r, err := store.Run(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "run %s (%s)\n", r.RunID, r.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(os.Stdout, "tests dir: %s\n", r.TestsDir)
	if r.Pattern != "" {
		fmt.Fprintf(os.Stdout, "pattern: %s\n", r.Pattern)
	}
	fmt.Fprintf(os.Stdout, "endpoint: %s, workers: %d\n", r.EvaluateURL, r.Workers)
	fmt.Fprintf(os.Stdout, "tests: %d passed, %d failed; cases: %d passed, %d failed\n\n",
		r.Passed, r.Failed, r.CasePassed, r.CaseFailed)

	failures, err := store.Failures(ctx, runID)
	if err != nil {
		return fmt.Errorf("list failures: %w", err)
	}
	if len(failures) == 0 {
		fmt.Fprintln(os.Stdout, "no failures recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DIR\tFILE\tTEST\tREMARKS")
	for _, f := range failures {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Dir, f.File, f.TestID, f.Remarks)
	}
	return w.Flush()
}
