package reporter

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/tckrunner/internal/client"
	"github.com/ppiankov/tckrunner/internal/runner"
)

func str(s string) *string { return &s }

func sampleFileResult(root string) *runner.FileResult {
	path := filepath.Join(root, "cl2", "0001-test-01.xml")
	return &runner.FileResult{
		Path: path,
		Outcomes: []runner.TestOutcome{
			{
				File: path, CaseID: "001", TestID: "001",
				ModelName: "0001-input-data-string", Invocable: "Greeting Message",
				Passed: true, Duration: 1500 * time.Microsecond,
			},
			{
				File: path, CaseID: "002", TestID: "002",
				ModelName: "0001-input-data-string", Invocable: "Greeting Message",
				Remarks: "result differs from expected",
				Actual:  &client.ValueDTO{Simple: &client.SimpleDTO{Type: str("xsd:string"), Text: str("Hi")}},
				Expected: &client.ValueDTO{Simple: &client.SimpleDTO{Type: str("xsd:string"), Text: str("Hello")}},
			},
		},
	}
}

func TestTextReporter_PrintFileResult(t *testing.T) {
	root := filepath.FromSlash("/suite")
	var buf strings.Builder
	r := NewTextReporter(&buf, false)

	r.PrintFileResult(root, sampleFileResult(root))
	out := buf.String()

	if !strings.Contains(out, "Parsing test file: cl2/0001-test-01.xml") {
		t.Errorf("missing parse line:\n%s", out)
	}
	if !strings.Contains(out, "Executing test case, id: 001, model name: 0001-input-data-string, invocable name: Greeting Message") {
		t.Errorf("missing test case line:\n%s", out)
	}
	if !strings.Contains(out, "success 1500 µs") {
		t.Errorf("missing success status:\n%s", out)
	}
	if !strings.Contains(out, "failure\nresult differs from expected") {
		t.Errorf("missing failure status:\n%s", out)
	}
	if !strings.Contains(out, `"text": "Hello"`) {
		t.Errorf("missing pretty diff:\n%s", out)
	}
	if strings.Contains(out, "\033[") {
		t.Error("color codes present with color disabled")
	}
}

func TestTextReporter_GutterAlignment(t *testing.T) {
	root := filepath.FromSlash("/suite")
	var buf strings.Builder
	r := NewTextReporter(&buf, false)

	r.PrintFileResult(root, sampleFileResult(root))

	var statusCols []int
	for _, line := range strings.Split(buf.String(), "\n") {
		if i := strings.Index(line, ". success"); i >= 0 {
			statusCols = append(statusCols, i+2)
		}
		if i := strings.Index(line, ". failure"); i >= 0 {
			statusCols = append(statusCols, i+2)
		}
	}
	if len(statusCols) != 2 {
		t.Fatalf("status lines = %d, want 2", len(statusCols))
	}
	for _, col := range statusCols {
		if col != gutterWidth+2 {
			t.Errorf("status column = %d, want %d", col, gutterWidth+2)
		}
	}
}

func TestTextReporter_ParseFailure(t *testing.T) {
	root := filepath.FromSlash("/suite")
	var buf strings.Builder
	r := NewTextReporter(&buf, false)

	r.PrintFileResult(root, &runner.FileResult{
		Path: filepath.Join(root, "broken.xml"),
		Err:  "unexpected root element",
	})
	out := buf.String()
	if !strings.Contains(out, "failure\nunexpected root element") {
		t.Errorf("missing parse failure:\n%s", out)
	}
}

func TestTextReporter_Skipped(t *testing.T) {
	root := filepath.FromSlash("/suite")
	var buf strings.Builder
	r := NewTextReporter(&buf, false)

	r.PrintFileResult(root, &runner.FileResult{
		Path:    filepath.Join(root, "later.xml"),
		Skipped: true,
	})
	if !strings.Contains(buf.String(), "Skipping test file: later.xml") {
		t.Errorf("missing skip line:\n%s", buf.String())
	}
}

func TestTextReporter_PrintSummary(t *testing.T) {
	var buf strings.Builder
	r := NewTextReporter(&buf, false)

	report := &runner.Report{
		Passed: 3, Failed: 1,
		CasePassed: 2, CaseFailed: 1,
		RequestTime:   500 * time.Millisecond,
		TotalDuration: 2 * time.Second,
	}
	r.PrintSummary(report)
	out := buf.String()

	for _, want := range []string{
		"Tests:",
		"Test cases:",
		"Timings:",
		"│   Total │     4 │",
		"│ Success │     3 │  75.00% │",
		"│ Failure │     1 │  25.00% │",
		"│   Total │     3 │",
		"Requests per second",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestGutter(t *testing.T) {
	if got := gutter(10); len(got) != gutterWidth-10 {
		t.Errorf("gutter(10) len = %d", len(got))
	}
	if got := gutter(gutterWidth + 50); got != "..." {
		t.Errorf("oversized gutter = %q", got)
	}
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1s"},
		{90 * time.Second, "1m30s"},
		{42 * time.Millisecond, "0s"},
	}
	for _, tt := range tests {
		if got := Elapsed(tt.d); got != tt.want {
			t.Errorf("Elapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
