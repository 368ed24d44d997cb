package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/tckrunner/internal/runner"
)

func sampleReport(root string) *runner.Report {
	path := filepath.Join(root, "cl2", "0001-test-01.xml")
	return &runner.Report{
		RunID:       "deadbeef0001",
		Timestamp:   time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
		TestsDir:    root,
		Pattern:     `\.xml$`,
		EvaluateURL: "http://localhost:12000/evaluate",
		Workers:     4,
		Passed:      2,
		Failed:      1,
		CasePassed:  1,
		CaseFailed:  1,
		Files: []*runner.FileResult{
			{
				Path: path,
				Outcomes: []runner.TestOutcome{
					{File: path, TestID: "001", Passed: true},
					{File: path, TestID: "002", Passed: true},
					{File: path, TestID: "003", Remarks: "result differs from expected"},
				},
			},
		},
		TotalDuration: 1500 * time.Millisecond,
	}
}

func TestStore_RecordAndQuery(t *testing.T) {
	root := t.TempDir()
	store, err := Open(filepath.Join(root, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.RecordRun(ctx, sampleReport(root)); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	r := runs[0]
	if r.RunID != "deadbeef0001" || r.Passed != 2 || r.Failed != 1 || r.DurationMS != 1500 {
		t.Errorf("run record = %+v", r)
	}
	if !r.Timestamp.Equal(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", r.Timestamp)
	}

	failures, err := store.Failures(ctx, "deadbeef0001")
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	f := failures[0]
	if f.Dir != "cl2" || f.File != "0001-test-01" || f.TestID != "003" || f.Remarks != "result differs from expected" {
		t.Errorf("failure record = %+v", f)
	}
}

func TestStore_RunByID(t *testing.T) {
	root := t.TempDir()
	store, err := Open(filepath.Join(root, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.RecordRun(ctx, sampleReport(root)); err != nil {
		t.Fatal(err)
	}

	r, err := store.Run(ctx, "deadbeef0001")
	if err != nil {
		t.Fatal(err)
	}
	if r.EvaluateURL != "http://localhost:12000/evaluate" {
		t.Errorf("run = %+v", r)
	}

	if _, err := store.Run(ctx, "missing"); err == nil {
		t.Error("expected error for unknown run id")
	}
}

func TestStore_RunsLimitAndOrder(t *testing.T) {
	root := t.TempDir()
	store, err := Open(filepath.Join(root, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		report := sampleReport(root)
		report.RunID = string(rune('a'+i)) + "00000000000"
		report.Timestamp = report.Timestamp.Add(time.Duration(i) * time.Hour)
		report.Files = nil
		if err := store.RecordRun(ctx, report); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.Runs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].RunID[0] != 'c' || runs[1].RunID[0] != 'b' {
		t.Errorf("order = %s, %s", runs[0].RunID, runs[1].RunID)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "history.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordRun(context.Background(), sampleReport(root)); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.Runs(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("runs after reopen = %d, want 1", len(runs))
	}
}
