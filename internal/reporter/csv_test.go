package reporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/tckrunner/internal/runner"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestCSVWriter(t *testing.T) {
	root := filepath.FromSlash("/suite")
	path := filepath.Join(t.TempDir(), "report.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFileResult(root, sampleFileResult(root)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	want := []string{"cl2", "0001-test-01", "001", "SUCCESS", ""}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("row 0 = %v, want %v", rows[0], want)
	}
	want = []string{"cl2", "0001-test-01", "002", "ERROR", "result differs from expected"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row 1 = %v, want %v", rows[1], want)
	}
}

func TestCSVWriter_QuotesEveryField(t *testing.T) {
	root := filepath.FromSlash("/suite")
	path := filepath.Join(t.TempDir(), "report.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFileResult(root, sampleFileResult(root)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != `"cl2","0001-test-01","001","SUCCESS",""` {
		t.Errorf("row 0 = %s", lines[0])
	}
	if lines[1] != `"cl2","0001-test-01","002","ERROR","result differs from expected"` {
		t.Errorf("row 1 = %s", lines[1])
	}
}

func TestWriteRow_EscapesEmbeddedQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tck.csv")
	report := &runner.Report{
		Cases: []runner.CaseResult{
			{Key: runner.CaseKey{Dir: "cl2", File: "f", CaseID: "001"}, Remarks: []string{`expected "yes"`}},
		},
	}
	if err := WriteTCKReport(report, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimRight(string(data), "\n"); got != `"cl2","f","001","ERROR","expected ""yes"""` {
		t.Errorf("row = %s", got)
	}
	rows := readRows(t, path)
	if rows[0][4] != `expected "yes"` {
		t.Errorf("parsed remarks = %q", rows[0][4])
	}
}

func TestWriteTCKReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tck.csv")
	report := &runner.Report{
		Cases: []runner.CaseResult{
			{Key: runner.CaseKey{Dir: "cl2", File: "0001-test-01", CaseID: "001"}, Passed: true},
			{
				Key:     runner.CaseKey{Dir: "cl2", File: "0001-test-01", CaseID: "002"},
				Remarks: []string{"result differs from expected", "no actual value"},
			},
		},
	}

	if err := WriteTCKReport(report, path); err != nil {
		t.Fatal(err)
	}
	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][3] != "SUCCESS" || rows[0][4] != "" {
		t.Errorf("success row = %v", rows[0])
	}
	if rows[1][3] != "ERROR" || rows[1][4] != "result differs from expected,no actual value" {
		t.Errorf("failure row = %v", rows[1])
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := &runner.Report{RunID: "abc123", Passed: 2, Failed: 1}

	if err := WriteJSONReport(report, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded runner.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.RunID != "abc123" || decoded.Passed != 2 || decoded.Failed != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}
