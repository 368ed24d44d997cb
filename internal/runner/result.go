package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/tckrunner/internal/client"
)

// TestOutcome is the result of executing a single result node of a test case.
type TestOutcome struct {
	File      string        `json:"file"`
	CaseID    string        `json:"case_id"`
	TestID    string        `json:"test_id"`
	ModelName string        `json:"model_name"`
	Invocable string        `json:"invocable"`
	Passed    bool          `json:"passed"`
	Remarks   string        `json:"remarks,omitempty"`
	Duration  time.Duration `json:"duration"`

	// populated on value mismatch for diff rendering
	Actual   *client.ValueDTO `json:"actual,omitempty"`
	Expected *client.ValueDTO `json:"expected,omitempty"`
}

// FileResult holds all outcomes from one test file.
type FileResult struct {
	Path     string        `json:"path"`
	Err      string        `json:"error,omitempty"` // parse or lookup failure
	Skipped  bool          `json:"skipped,omitempty"`
	Outcomes []TestOutcome `json:"outcomes,omitempty"`
}

// Failed reports whether the file produced any failing outcome or could
// not be executed at all.
func (fr *FileResult) Failed() bool {
	if fr.Err != "" {
		return true
	}
	for _, o := range fr.Outcomes {
		if !o.Passed {
			return true
		}
	}
	return false
}

// CaseKey identifies a test case across the suite.
type CaseKey struct {
	Dir    string `json:"dir"`  // test file directory relative to the root
	File   string `json:"file"` // test file name without extension
	CaseID string `json:"case_id"`
}

// CaseResult aggregates all outcomes belonging to one test case.
type CaseResult struct {
	Key     CaseKey  `json:"key"`
	Passed  bool     `json:"passed"`
	Remarks []string `json:"remarks,omitempty"`
}

// Report is the final output of a suite run.
type Report struct {
	RunID         string        `json:"run_id"`
	Timestamp     time.Time     `json:"timestamp"`
	TestsDir      string        `json:"tests_dir"`
	Pattern       string        `json:"pattern,omitempty"`
	EvaluateURL   string        `json:"evaluate_url"`
	Workers       int           `json:"workers"`
	Files         []*FileResult `json:"files"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	Cases         []CaseResult  `json:"cases"`
	CasePassed    int           `json:"case_passed"`
	CaseFailed    int           `json:"case_failed"`
	RequestTime   time.Duration `json:"request_time"`
	TotalDuration time.Duration `json:"total_duration"`
}

// Total returns the number of executed tests.
func (r *Report) Total() int { return r.Passed + r.Failed }

// RequestsPerSecond derives throughput from accumulated request time.
func (r *Report) RequestsPerSecond() float64 {
	secs := r.RequestTime.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Total()) / secs
}

// Percentages returns success and failure percentages over the total.
func Percentages(passed, failed int) (float64, float64) {
	total := passed + failed
	if total == 0 {
		return 0, 0
	}
	return float64(passed*100) / float64(total), float64(failed*100) / float64(total)
}

// BuildReport aggregates file results into a run report. root is the
// suite root used to relativize report paths.
func BuildReport(root, pattern, evaluateURL string, workers int, files []*FileResult, total time.Duration) *Report {
	r := &Report{
		Timestamp:     time.Now(),
		TestsDir:      root,
		Pattern:       pattern,
		EvaluateURL:   evaluateURL,
		Workers:       workers,
		Files:         files,
		TotalDuration: total,
	}

	// run id from timestamp and suite identity
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s", r.Timestamp.UnixNano(), root, pattern)
	r.RunID = hex.EncodeToString(h.Sum(nil)[:6])

	caseFailures := make(map[CaseKey][]string)
	caseSeen := make(map[CaseKey]struct{})
	for _, fr := range files {
		for _, o := range fr.Outcomes {
			key := caseKeyFor(root, o.File, o.CaseID)
			caseSeen[key] = struct{}{}
			if o.Passed {
				r.Passed++
			} else {
				r.Failed++
				caseFailures[key] = append(caseFailures[key], o.Remarks)
			}
			r.RequestTime += o.Duration
		}
	}

	keys := make([]CaseKey, 0, len(caseSeen))
	for key := range caseSeen {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Dir != b.Dir {
			return a.Dir < b.Dir
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.CaseID < b.CaseID
	})

	for _, key := range keys {
		failures, failed := caseFailures[key]
		r.Cases = append(r.Cases, CaseResult{Key: key, Passed: !failed, Remarks: failures})
		if failed {
			r.CaseFailed++
		} else {
			r.CasePassed++
		}
	}

	return r
}

func caseKeyFor(root, testFile, caseID string) CaseKey {
	return CaseKey{
		Dir:    RelDir(root, testFile),
		File:   FileStem(testFile),
		CaseID: caseID,
	}
}

// RelDir returns the directory of path relative to root, slash-separated.
// Paths outside root are returned as their absolute directory.
func RelDir(root, path string) string {
	dir := filepath.Dir(path)
	rel, err := filepath.Rel(root, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(dir)
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// FileStem returns the file name without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
