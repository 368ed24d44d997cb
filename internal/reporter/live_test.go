package reporter

import (
	"strings"
	"testing"
)

func TestLiveReporter_Line(t *testing.T) {
	lr := NewLiveReporter(&strings.Builder{}, false, nil)

	line := lr.Line(Counts{FilesDone: 3, FilesTotal: 10, Passed: 42, Failed: 2})
	for _, want := range []string{"files 3/10", "42 passed", "2 failed"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %s", want, line)
		}
	}
	if strings.Contains(line, "\033[") {
		t.Error("color codes present with color disabled")
	}
}

func TestLiveReporter_StartStop(t *testing.T) {
	var buf strings.Builder
	lr := NewLiveReporter(&buf, false, func() Counts {
		return Counts{FilesDone: 1, FilesTotal: 1, Passed: 5}
	})

	lr.Start()
	lr.Stop()
	if !strings.Contains(buf.String(), "files 1/1") {
		t.Errorf("final line missing: %q", buf.String())
	}
}
