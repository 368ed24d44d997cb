package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tckrunner/internal/config"
	"github.com/ppiankov/tckrunner/internal/watch"
)

func newWatchCmd() *cobra.Command {
	opts := &runOptions{}
	var (
		poll         bool
		debounce     time.Duration
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run affected test files when models or tests change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			mergeSettings(cmd, opts, cfg)
			if cfg.Watch != nil {
				if !cmd.Flags().Changed("poll") && cfg.Watch.Poll {
					poll = cfg.Watch.Poll
				}
				if !cmd.Flags().Changed("debounce") && cfg.Watch.Debounce > 0 {
					debounce = cfg.Watch.Debounce
				}
				if !cmd.Flags().Changed("poll-interval") && cfg.Watch.PollInterval > 0 {
					pollInterval = cfg.Watch.PollInterval
				}
			}
			// live displays would fight with the watch loop's streamed output
			if opts.display == "auto" {
				opts.display = "off"
			}
			return watchSuite(opts, poll, debounce, pollInterval)
		},
	}

	addRunFlags(cmd, opts)
	cmd.Flags().BoolVar(&poll, "poll", false, "poll for changes instead of using fsnotify")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "event batching window (default 200ms)")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "poll mode scan interval (default 5s)")
	return cmd
}

func watchSuite(opts *runOptions, poll bool, debounce, pollInterval time.Duration) error {
	root, err := filepath.Abs(opts.testsDir)
	if err != nil {
		return fmt.Errorf("resolve tests dir: %w", err)
	}

	var pattern *regexp.Regexp
	if opts.pattern != "" {
		pattern, err = regexp.Compile(opts.pattern)
		if err != nil {
			return fmt.Errorf("parse file pattern: %w", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	w, err := watch.New(watch.Config{
		Root:         root,
		Pattern:      pattern,
		PollMode:     poll,
		Debounce:     debounce,
		PollInterval: pollInterval,
		OnChange: func(ctx context.Context, paths []string) {
			runOpts := *opts
			runOpts.only = affectedTargets(paths)
			report, err := executeRun(ctx, &runOpts)
			switch {
			case err != nil:
				fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
			case report != nil && report.Failed > 0:
				fmt.Fprintf(os.Stdout, "\nwaiting for changes (%d tests failing)...\n", report.Failed)
			default:
				fmt.Fprintln(os.Stdout, "\nwaiting for changes...")
			}
		},
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// affectedTargets maps changed paths to run targets: a changed test
// file re-runs itself, a changed model re-runs its whole directory.
// nil means run everything.
func affectedTargets(paths []string) []string {
	if paths == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, p := range paths {
		target := p
		if strings.EqualFold(filepath.Ext(p), ".dmn") {
			target = filepath.Dir(p)
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}
