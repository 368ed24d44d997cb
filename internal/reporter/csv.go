package reporter

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/tckrunner/internal/runner"
)

const (
	statusSuccess = "SUCCESS"
	statusFailure = "ERROR"
)

func statusOf(passed bool) string {
	if passed {
		return statusSuccess
	}
	return statusFailure
}

// writeRow writes one report row with every field quoted, the format
// the TCK result tooling consumes. Embedded quotes are doubled.
func writeRow(w *bufio.Writer, fields ...string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// CSVWriter streams per-test result rows to a CSV file as files
// complete. Each row is: directory, file stem, test id, status, remarks.
type CSVWriter struct {
	f *os.File
	w *bufio.Writer
}

// NewCSVWriter creates the report file, truncating any previous one.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report file %s: %w", path, err)
	}
	return &CSVWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteFileResult appends one row per test outcome of the file.
// Remarks are recorded for failures only.
func (c *CSVWriter) WriteFileResult(root string, fr *runner.FileResult) error {
	for _, o := range fr.Outcomes {
		remarks := ""
		if !o.Passed {
			remarks = o.Remarks
		}
		err := writeRow(c.w,
			runner.RelDir(root, o.File),
			runner.FileStem(o.File),
			o.TestID,
			statusOf(o.Passed),
			remarks,
		)
		if err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (c *CSVWriter) Close() error {
	if err := c.w.Flush(); err != nil {
		c.f.Close()
		return fmt.Errorf("flush report: %w", err)
	}
	return c.f.Close()
}

// WriteTCKReport writes the per-test-case CSV consumed by the TCK
// result tooling. Each row is: directory, file stem, case id, status,
// remarks (all failure remarks of the case joined with commas).
func WriteTCKReport(report *runner.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, c := range report.Cases {
		err := writeRow(w,
			c.Key.Dir,
			c.Key.File,
			c.Key.CaseID,
			statusOf(c.Passed),
			strings.Join(c.Remarks, ","),
		)
		if err != nil {
			f.Close()
			return fmt.Errorf("write report row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush report: %w", err)
	}
	return f.Close()
}
