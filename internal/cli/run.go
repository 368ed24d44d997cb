package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ppiankov/tckrunner/internal/client"
	"github.com/ppiankov/tckrunner/internal/config"
	"github.com/ppiankov/tckrunner/internal/dmn"
	"github.com/ppiankov/tckrunner/internal/reporter"
	"github.com/ppiankov/tckrunner/internal/runner"
	"github.com/ppiankov/tckrunner/internal/state"
	"github.com/ppiankov/tckrunner/internal/suite"
)

// runOptions are the effective settings of one suite run after merging
// flags and config file values.
type runOptions struct {
	testsDir       string
	pattern        string
	endpoint       string
	reportFile     string
	tckReportFile  string
	jsonReportFile string
	stopOnFailure  bool
	workers        int
	timeout        time.Duration
	historyDB      string
	display        string
	dryRun         bool

	// restricts the run to these test files or directories; nil runs
	// everything
	only []string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the test suite against a DMN evaluation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			mergeSettings(cmd, opts, cfg)

			ctx, cancel := signalContext()
			defer cancel()

			report, err := executeRun(ctx, opts)
			if err != nil {
				return err
			}
			if report != nil && report.Failed > 0 {
				return fmt.Errorf("%d tests failed", report.Failed)
			}
			return nil
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.testsDir, "tests", ".", "root directory containing DMN models and TCK test files")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "regular expression filtering full file paths")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "http://127.0.0.1:22022/evaluate", "URL of the DMN evaluation service")
	cmd.Flags().StringVar(&opts.reportFile, "report", "report.csv", "per-test CSV report file")
	cmd.Flags().StringVar(&opts.tckReportFile, "tck-report", "tck-report.csv", "per-test-case CSV report file")
	cmd.Flags().StringVar(&opts.jsonReportFile, "json-report", "", "JSON run report file (disabled when empty)")
	cmd.Flags().BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "cancel the run after the first failed test")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "test files evaluated in parallel")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "per-request timeout")
	cmd.Flags().StringVar(&opts.historyDB, "history-db", "", "SQLite run-history database (disabled when empty)")
	cmd.Flags().StringVar(&opts.display, "display", "auto", "display mode: full (interactive TUI), minimal (live progress line), off (streamed text), auto (detect TTY)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list the execution plan without evaluating")
}

// mergeSettings fills flags the user did not set from the config file.
func mergeSettings(cmd *cobra.Command, opts *runOptions, cfg *config.Settings) {
	if !cmd.Flags().Changed("tests") && cfg.TestsDir != "" {
		opts.testsDir = cfg.TestsDir
	}
	if !cmd.Flags().Changed("pattern") && cfg.FilePattern != "" {
		opts.pattern = cfg.FilePattern
	}
	if !cmd.Flags().Changed("endpoint") && cfg.EvaluateURL != "" {
		opts.endpoint = cfg.EvaluateURL
	}
	if !cmd.Flags().Changed("report") && cfg.ReportFile != "" {
		opts.reportFile = cfg.ReportFile
	}
	if !cmd.Flags().Changed("tck-report") && cfg.TCKReportFile != "" {
		opts.tckReportFile = cfg.TCKReportFile
	}
	if !cmd.Flags().Changed("json-report") && cfg.JSONReportFile != "" {
		opts.jsonReportFile = cfg.JSONReportFile
	}
	if !cmd.Flags().Changed("stop-on-failure") && cfg.StopOnFailure {
		opts.stopOnFailure = cfg.StopOnFailure
	}
	if !cmd.Flags().Changed("workers") && cfg.Workers > 0 {
		opts.workers = cfg.Workers
	}
	if !cmd.Flags().Changed("timeout") && cfg.RequestTimeout > 0 {
		opts.timeout = cfg.RequestTimeout
	}
	if !cmd.Flags().Changed("history-db") && cfg.HistoryDB != "" {
		opts.historyDB = cfg.HistoryDB
	}
	if !cmd.Flags().Changed("display") && cfg.Display != "" {
		opts.display = cfg.Display
	}
}

// signalContext returns a context cancelled by SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, waiting for running evaluations to finish...")
		cancel()
	}()
	return ctx, cancel
}

// executeRun is the shared execution core used by the run and watch
// commands.
func executeRun(ctx context.Context, opts *runOptions) (*runner.Report, error) {
	root, err := filepath.Abs(opts.testsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve tests dir: %w", err)
	}

	var pattern *regexp.Regexp
	if opts.pattern != "" {
		pattern, err = regexp.Compile(opts.pattern)
		if err != nil {
			return nil, fmt.Errorf("parse file pattern: %w", err)
		}
	}

	s, err := suite.Discover(root, pattern)
	if err != nil {
		return nil, fmt.Errorf("discover suite: %w", err)
	}

	paths := s.TestPaths()
	if opts.only != nil {
		paths = intersect(paths, opts.only)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no test files found under %s", root)
	}

	isTTY := reporter.IsTerminal(os.Stdout)
	textRep := reporter.NewTextReporter(os.Stdout, isTTY)

	if opts.dryRun {
		textRep.PrintHeader(root, opts.pattern, len(paths), opts.workers)
		fmt.Fprintln(os.Stdout, "\nExecution plan (dry-run):")
		for i, path := range paths {
			rel, _ := filepath.Rel(root, path)
			fmt.Fprintf(os.Stdout, "  %d. %s\n", i+1, filepath.ToSlash(rel))
		}
		return nil, nil
	}

	index := dmn.NewIndex()
	for _, d := range s.Dirs {
		for _, m := range d.Models {
			path := filepath.Join(d.Path, m)
			if err := index.AddModel(root, path); err != nil {
				slog.Warn("skipping model", "file", path, "error", err)
			}
		}
	}

	displayMode := opts.display
	if displayMode == "" || displayMode == "auto" {
		if isTTY {
			displayMode = "full"
		} else {
			displayMode = "off"
		}
	}
	streaming := displayMode != "full" && displayMode != "minimal"

	var csvW *reporter.CSVWriter
	if opts.reportFile != "" {
		csvW, err = reporter.NewCSVWriter(opts.reportFile)
		if err != nil {
			return nil, err
		}
	}

	if streaming {
		textRep.PrintHeader(root, opts.pattern, len(paths), opts.workers)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	evaluator := client.New(opts.endpoint, opts.timeout)
	run := runner.New(index, evaluator)
	progress := runner.NewProgress(paths)

	pool := runner.NewPool(run, runner.PoolConfig{
		Workers:       opts.workers,
		StopOnFailure: opts.stopOnFailure,
		OnStart:       progress.Start,
		OnResult: func(fr *runner.FileResult) {
			progress.Finish(fr)
			if csvW != nil {
				if err := csvW.WriteFileResult(root, fr); err != nil {
					slog.Warn("report write failed", "error", err)
				}
			}
			if streaming {
				textRep.PrintFileResult(root, fr)
			}
		},
	})

	var live *reporter.LiveReporter
	var tuiProgram *tea.Program
	switch displayMode {
	case "full":
		tuiModel := reporter.NewTUIModel(root, progress.Snapshot, cancel)
		tuiProgram = tea.NewProgram(tuiModel, tea.WithAltScreen())
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				slog.Warn("TUI error", "error", err)
			}
		}()
	case "minimal":
		live = reporter.NewLiveReporter(os.Stdout, isTTY, func() reporter.Counts {
			done, total, passed, failed := progress.Counts()
			return reporter.Counts{FilesDone: done, FilesTotal: total, Passed: passed, Failed: failed}
		})
		live.Start()
	}

	start := time.Now()
	results := pool.Run(ctx, paths)
	totalDuration := time.Since(start)

	if tuiProgram != nil {
		tuiProgram.Quit()
		time.Sleep(100 * time.Millisecond)
	}
	if live != nil {
		live.Stop()
	}
	if csvW != nil {
		if err := csvW.Close(); err != nil {
			slog.Warn("report close failed", "error", err)
		}
	}

	report := runner.BuildReport(root, opts.pattern, opts.endpoint, opts.workers, results, totalDuration)
	textRep.PrintSummary(report)

	if opts.tckReportFile != "" {
		if err := reporter.WriteTCKReport(report, opts.tckReportFile); err != nil {
			slog.Warn("failed to write TCK report", "error", err)
		}
	}
	if opts.jsonReportFile != "" {
		if err := reporter.WriteJSONReport(report, opts.jsonReportFile); err != nil {
			slog.Warn("failed to write JSON report", "error", err)
		} else {
			fmt.Fprintf(os.Stdout, "\nReport: %s\n", opts.jsonReportFile)
		}
	}

	// history is written even when the run context was cancelled
	recordHistory(context.Background(), opts.historyDB, report)

	return report, nil
}

// recordHistory stores the run summary, degrading to a warning when the
// database cannot be used.
func recordHistory(ctx context.Context, dbPath string, report *runner.Report) {
	if dbPath == "" {
		return
	}
	store, err := state.Open(dbPath)
	if err != nil {
		slog.Warn("history unavailable", "db", dbPath, "error", err)
		return
	}
	defer store.Close()
	if err := store.RecordRun(ctx, report); err != nil {
		slog.Warn("history record failed", "error", err)
	}
}

// intersect keeps the discovered paths selected by only: an entry
// matches a test file directly or, for a directory, every test file in
// it.
func intersect(paths, only []string) []string {
	keep := make(map[string]struct{}, len(only))
	for _, p := range only {
		keep[p] = struct{}{}
	}
	var out []string
	for _, p := range paths {
		if _, ok := keep[p]; ok {
			out = append(out, p)
			continue
		}
		if _, ok := keep[filepath.Dir(p)]; ok {
			out = append(out, p)
		}
	}
	return out
}
