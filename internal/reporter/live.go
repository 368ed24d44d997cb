package reporter

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Counts is a snapshot of run progress for the live display.
type Counts struct {
	FilesDone  int
	FilesTotal int
	Passed     int
	Failed     int
}

// LiveReporter provides a single-line, in-place progress display for
// the minimal display mode.
type LiveReporter struct {
	w         io.Writer
	color     bool
	getCounts func() Counts
	stop      chan struct{}
	done      chan struct{}
	started   time.Time
	frame     int
	rendered  bool
	mu        sync.Mutex
}

// NewLiveReporter creates a live reporter that polls progress via getCounts.
func NewLiveReporter(w io.Writer, color bool, getCounts func() Counts) *LiveReporter {
	return &LiveReporter{
		w:         w,
		color:     color,
		getCounts: getCounts,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the periodic refresh loop.
func (lr *LiveReporter) Start() {
	lr.started = time.Now()
	go lr.loop()
}

// Stop halts the refresh loop, leaving the final progress line visible.
func (lr *LiveReporter) Stop() {
	close(lr.stop)
	<-lr.done
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.renderLine()
	fmt.Fprintln(lr.w)
}

func (lr *LiveReporter) loop() {
	defer close(lr.done)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-lr.stop:
			return
		case <-ticker.C:
			lr.mu.Lock()
			lr.renderLine()
			lr.frame++
			lr.mu.Unlock()
		}
	}
}

func (lr *LiveReporter) renderLine() {
	fmt.Fprintf(lr.w, "\r\033[K%s", lr.Line(lr.getCounts()))
	lr.rendered = true
}

// Line produces the progress line for a given counts snapshot.
// Exported for testing.
func (lr *LiveReporter) Line(c Counts) string {
	spinner := spinnerFrames[lr.frame%len(spinnerFrames)]
	elapsed := Elapsed(time.Since(lr.started))

	failed := fmt.Sprintf("%d failed", c.Failed)
	if lr.color && c.Failed > 0 {
		failed = colorRed + failed + colorReset
	}
	passed := fmt.Sprintf("%d passed", c.Passed)
	if lr.color {
		passed = colorGreen + passed + colorReset
	}
	return fmt.Sprintf("%s files %d/%d  %s  %s  %s", spinner, c.FilesDone, c.FilesTotal, passed, failed, elapsed)
}
