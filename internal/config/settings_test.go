package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettings_Valid(t *testing.T) {
	content := `
tests_dir: /data/tck
file_pattern: 'compliance-level-2'
evaluate_url: http://localhost:12000/evaluate
report_file: report.csv
tck_report_file: tck-report.csv
stop_on_failure: true
workers: 8
request_timeout: 45s
display: minimal
`
	path := writeTemp(t, content)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.TestsDir != "/data/tck" {
		t.Errorf("tests_dir: got %q", s.TestsDir)
	}
	if s.FilePattern != "compliance-level-2" {
		t.Errorf("file_pattern: got %q", s.FilePattern)
	}
	if s.EvaluateURL != "http://localhost:12000/evaluate" {
		t.Errorf("evaluate_url: got %q", s.EvaluateURL)
	}
	if s.ReportFile != "report.csv" || s.TCKReportFile != "tck-report.csv" {
		t.Errorf("report files: got %q, %q", s.ReportFile, s.TCKReportFile)
	}
	if !s.StopOnFailure {
		t.Error("stop_on_failure: got false, want true")
	}
	if s.Workers != 8 {
		t.Errorf("workers: got %d, want 8", s.Workers)
	}
	if s.RequestTimeout != 45*time.Second {
		t.Errorf("request_timeout: got %v, want 45s", s.RequestTimeout)
	}
	if s.Display != "minimal" {
		t.Errorf("display: got %q", s.Display)
	}
}

func TestLoadSettings_Partial(t *testing.T) {
	path := writeTemp(t, `workers: 12`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.Workers != 12 {
		t.Errorf("workers: got %d, want 12", s.Workers)
	}
	if s.TestsDir != "" {
		t.Errorf("tests_dir: got %q, want empty", s.TestsDir)
	}
	if s.StopOnFailure {
		t.Error("stop_on_failure: got true, want false")
	}
	if s.Watch != nil {
		t.Error("watch: got non-nil, want nil")
	}
}

func TestLoadSettings_Watch(t *testing.T) {
	content := `
watch:
  poll: true
  debounce: 500ms
  poll_interval: 10s
`
	path := writeTemp(t, content)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Watch == nil {
		t.Fatal("watch: got nil")
	}
	if !s.Watch.Poll || s.Watch.Debounce != 500*time.Millisecond || s.Watch.PollInterval != 10*time.Second {
		t.Errorf("watch: got %+v", s.Watch)
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if s.Workers != 0 {
		t.Errorf("expected zero-value settings, got workers=%d", s.Workers)
	}
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "workers: [invalid\n")
	_, err := LoadSettings(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".tckrunner.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
