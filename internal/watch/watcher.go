// Package watch re-runs the test suite when model or test files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the debounce interval for file events.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// Config holds watcher configuration.
type Config struct {
	Root         string                    // suite root to watch recursively
	Pattern      *regexp.Regexp            // optional filter on full file paths
	PollMode     bool                      // fall back to polling instead of fsnotify
	Debounce     time.Duration             // event batching window
	PollInterval time.Duration             // poll mode scan interval
	PIDFile      string                                     // lock file preventing concurrent watch sessions
	OnChange     func(ctx context.Context, paths []string) // invoked after changes settle; nil paths means everything
}

// Watcher triggers suite runs on file changes under the root.
type Watcher struct {
	cfg Config
}

// New creates a watcher with validated configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("watch root is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = debounceDefault
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}
	if cfg.PIDFile == "" {
		cfg.PIDFile = filepath.Join(cfg.Root, ".tckrunner.pid")
	}
	return &Watcher{cfg: cfg}, nil
}

// Run starts the watch loop. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := acquirePIDLock(w.cfg.PIDFile); err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer func() { _ = os.Remove(w.cfg.PIDFile) }()

	slog.Info("watch starting", "root", w.cfg.Root, "debounce", w.cfg.Debounce)

	// run once before waiting for changes
	w.cfg.OnChange(ctx, nil)

	if w.cfg.PollMode {
		return w.runPollWatcher(ctx)
	}
	return w.runFSWatcher(ctx)
}

// runFSWatcher watches the root recursively using fsnotify.
func (w *Watcher) runFSWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addRecursive(watcher, w.cfg.Root); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	slog.Info("watching for changes", "mode", "fsnotify", "dir", w.cfg.Root)

	var mu sync.Mutex
	var pending *time.Timer
	batch := make(map[string]struct{})

	// runCh wakes the single run consumer; the buffer of one coalesces
	// timer firings so at most one wakeup is queued behind a running
	// suite.
	runCh := make(chan struct{}, 1)
	notify := func() {
		select {
		case runCh <- struct{}{}:
		default:
		}
	}

	trigger := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		batch[path] = struct{}{}
		if pending != nil {
			pending.Stop()
		}
		pending = time.AfterFunc(w.cfg.Debounce, notify)
	}

	// suite runs execute one at a time. Changes arriving while a run is
	// in flight stay batched and start the next run when it finishes.
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-runCh:
				mu.Lock()
				paths := make([]string, 0, len(batch))
				for p := range batch {
					paths = append(paths, p)
				}
				batch = make(map[string]struct{})
				mu.Unlock()
				if len(paths) == 0 {
					continue
				}
				sort.Strings(paths)
				w.cfg.OnChange(ctx, paths)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			mu.Unlock()
			slog.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				// new subdirectories need their own watch
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			slog.Debug("file change", "file", event.Name, "op", event.Op.String())
			trigger(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// runPollWatcher rescans the tree on an interval and triggers when
// file modification times change.
func (w *Watcher) runPollWatcher(ctx context.Context) error {
	slog.Info("watching for changes", "mode", "poll", "dir", w.cfg.Root, "interval", w.cfg.PollInterval)

	last := w.scanModTimes()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case <-ticker.C:
			current := w.scanModTimes()
			if paths := changedPaths(last, current); len(paths) > 0 {
				w.cfg.OnChange(ctx, paths)
			}
			last = current
		}
	}
}

func (w *Watcher) scanModTimes() map[string]time.Time {
	out := make(map[string]time.Time)
	_ = filepath.WalkDir(w.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !w.relevant(path) {
			return nil
		}
		if info, err := d.Info(); err == nil {
			out[path] = info.ModTime()
		}
		return nil
	})
	return out
}

func changedPaths(last, current map[string]time.Time) []string {
	var out []string
	for path, mod := range current {
		if prev, ok := last[path]; !ok || !prev.Equal(mod) {
			out = append(out, path)
		}
	}
	for path := range last {
		if _, ok := current[path]; !ok {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// relevant reports whether a changed file should trigger a run.
func (w *Watcher) relevant(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".dmn" && ext != ".xml" {
		return false
	}
	if w.cfg.Pattern != nil && !w.cfg.Pattern.MatchString(filepath.ToSlash(path)) {
		return false
	}
	return true
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// acquirePIDLock writes the current PID and checks for stale locks.
func acquirePIDLock(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another watch session is running (PID %d)", pid)
				}
			}
		}
		_ = os.Remove(path)
	}

	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}
