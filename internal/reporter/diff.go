package reporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/tckrunner/internal/client"
)

// diffBackoff is how many characters of context precede the first
// differing character in the truncated diff.
const diffBackoff = 30

// printDiff writes a two-stage comparison of actual versus expected
// values: compact JSON with the first differing position highlighted,
// then a side-by-side line diff of the pretty-printed forms.
func (r *TextReporter) printDiff(actual, expected *client.ValueDTO) {
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		return
	}
	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		return
	}

	fmt.Fprintf(r.w, "    result: %s%s%s\n", r.c(colorRed), actualJSON, r.c(colorReset))
	fmt.Fprintf(r.w, "  expected: %s%s%s\n\n", r.c(colorGreen), expectedJSON, r.c(colorReset))

	if idx, ok := firstDiff(string(actualJSON), string(expectedJSON)); ok {
		if idx > diffBackoff {
			idx -= diffBackoff
		} else {
			idx = 0
		}
		fmt.Fprintf(r.w, "    result [%d..]: %s%s%s\n", idx, r.c(colorRed), actualJSON[idx:], r.c(colorReset))
		fmt.Fprintf(r.w, "  expected [%d..]: %s%s%s\n\n", idx, r.c(colorGreen), expectedJSON[idx:], r.c(colorReset))
	}

	r.printLineDiff(actual, expected)
}

func (r *TextReporter) printLineDiff(actual, expected *client.ValueDTO) {
	actualPretty, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		return
	}
	expectedPretty, err := json.MarshalIndent(expected, "", "  ")
	if err != nil {
		return
	}

	actualLines := strings.Split(string(actualPretty), "\n")
	expectedLines := strings.Split(string(expectedPretty), "\n")
	width := maxLineWidth(expectedLines) + 5

	n := len(actualLines)
	if len(expectedLines) < n {
		n = len(expectedLines)
	}
	for i := 0; i < n; i++ {
		a, e := actualLines[i], expectedLines[i]
		marker, red, green := " ", colorReset, colorReset
		if a != e {
			marker, red, green = "|", colorRed, colorGreen
		}
		fmt.Fprintf(r.w, "%s %s%-*s%s %s%s%s\n", marker, r.c(green), width, e, r.c(colorReset), r.c(red), a, r.c(colorReset))
	}
}

// firstDiff returns the index of the first position where the strings
// differ, comparing only up to the shorter length.
func firstDiff(a, b string) (int, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i, true
		}
	}
	return 0, false
}

func maxLineWidth(lines []string) int {
	max := 0
	for _, line := range lines {
		if len(line) > max {
			max = len(line)
		}
	}
	return max
}
