// Package reporter renders run progress and results: colored console
// output, CSV and JSON report files, and terminal displays.
package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/tckrunner/internal/runner"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[97m"
	colorDim    = "\033[2m"
)

// gutterWidth is the column where the per-test status starts.
const gutterWidth = 100

var gap = strings.Repeat(".", gutterWidth)

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(root, pattern string, files, workers int) {
	fmt.Fprintf(r.w, "tckrunner: %d test files, %d workers\n", files, workers)
	fmt.Fprintf(r.w, "Tests directory: %s\n", root)
	if pattern != "" {
		fmt.Fprintf(r.w, "File search pattern: %s\n", pattern)
	}
}

// PrintFileResult writes the parse line and all test outcomes of one
// test file. root relativizes the displayed path.
func (r *TextReporter) PrintFileResult(root string, fr *runner.FileResult) {
	path := displayPath(root, fr.Path)

	if fr.Skipped {
		fmt.Fprintf(r.w, "\n  %sSkipping test file: %s%s\n", r.c(colorDim), path, r.c(colorReset))
		return
	}

	text := fmt.Sprintf("  Parsing test file: %s", path)
	fmt.Fprintf(r.w, "\n%s %s ", text, gutter(len(text)))
	if fr.Err != "" {
		fmt.Fprintf(r.w, "%sfailure%s\n%s%s%s\n", r.c(colorRed), r.c(colorReset), r.c(colorYellow), fr.Err, r.c(colorReset))
		return
	}
	fmt.Fprintf(r.w, "%sok%s\n\n", r.c(colorGreen), r.c(colorReset))

	for _, o := range fr.Outcomes {
		r.printOutcome(o)
	}
}

func (r *TextReporter) printOutcome(o runner.TestOutcome) {
	plain := fmt.Sprintf("Executing test case, id: %s, model name: %s, invocable name: %s", o.TestID, o.ModelName, o.Invocable)
	text := fmt.Sprintf("Executing test case, %[1]sid%[2]s: %[3]s%[4]s%[2]s, %[1]smodel name%[2]s: %[3]s%[5]s%[2]s, %[1]sinvocable name%[2]s: %[3]s%[6]s%[2]s",
		r.c(colorWhite), r.c(colorReset), r.c(colorBlue), o.TestID, o.ModelName, o.Invocable)
	fmt.Fprintf(r.w, "%s %s ", text, gutter(len(plain)))

	if o.Passed {
		fmt.Fprintf(r.w, "%ssuccess%s %d µs\n", r.c(colorGreen), r.c(colorReset), o.Duration.Microseconds())
		return
	}
	fmt.Fprintf(r.w, "%sfailure%s\n%s%s%s\n", r.c(colorRed), r.c(colorReset), r.c(colorYellow), o.Remarks, r.c(colorReset))
	if o.Actual != nil && o.Expected != nil {
		r.printDiff(o.Actual, o.Expected)
	}
}

// PrintSummary writes the final tables for tests, test cases and timings.
func (r *TextReporter) PrintSummary(report *runner.Report) {
	successPerc, failurePerc := runner.Percentages(report.Passed, report.Failed)
	fmt.Fprintf(r.w, "\nTests:\n")
	r.printCountTable(report.Total(), report.Passed, report.Failed, successPerc, failurePerc)

	successPerc, failurePerc = runner.Percentages(report.CasePassed, report.CaseFailed)
	fmt.Fprintf(r.w, "\nTest cases:\n")
	r.printCountTable(report.CasePassed+report.CaseFailed, report.CasePassed, report.CaseFailed, successPerc, failurePerc)

	fmt.Fprintf(r.w, "\nTimings:\n")
	fmt.Fprintln(r.w, "┌───────────────────────┬────────┐")
	fmt.Fprintf(r.w, "│    Total request time │ %5.2fs │\n", report.RequestTime.Seconds())
	fmt.Fprintf(r.w, "│   Requests per second │ %6.0f │\n", report.RequestsPerSecond())
	fmt.Fprintf(r.w, "│    Total run duration │ %5.1fs │\n", report.TotalDuration.Seconds())
	fmt.Fprintln(r.w, "└───────────────────────┴────────┘")
}

func (r *TextReporter) printCountTable(total, success, failure int, successPerc, failurePerc float64) {
	failureColor := colorWhite
	if failure > 0 {
		failureColor = colorRed
	}
	fmt.Fprintln(r.w, "┌─────────┬───────┬─────────┐")
	fmt.Fprintf(r.w, "│   Total │ %5d │         │\n", total)
	fmt.Fprintln(r.w, "├─────────┼───────┼─────────┤")
	fmt.Fprintf(r.w, "│ %sSuccess%s │ %s%5d%s │%s%7.2f%%%s │\n",
		r.c(colorGreen), r.c(colorReset), r.c(colorGreen), success, r.c(colorReset), r.c(colorGreen), successPerc, r.c(colorReset))
	fmt.Fprintf(r.w, "│ %sFailure%s │ %s%5d%s │%s%7.2f%%%s │\n",
		r.c(failureColor), r.c(colorReset), r.c(failureColor), failure, r.c(colorReset), r.c(failureColor), failurePerc, r.c(colorReset))
	fmt.Fprintln(r.w, "└─────────┴───────┴─────────┘")
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}

// gutter returns a run of dots padding a line of the given visible
// width out to the status column.
func gutter(width int) string {
	if width >= gutterWidth {
		return "..."
	}
	return gap[:gutterWidth-width]
}

// displayPath shows path relative to root when possible.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Elapsed formats a duration for display, truncated to seconds.
func Elapsed(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
