package reporter

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/tckrunner/internal/runner"
)

// TUI styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pauseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

type tickMsg time.Time

// TUIModel is the Bubbletea model for the full-screen run display.
type TUIModel struct {
	root        string
	getSnapshot func() []runner.FileStatus
	cancelRun   func() // called on 'q' to cancel the run context

	files        []runner.FileStatus
	scrollOffset int
	paused       bool
	frame        int
	width        int
	height       int
	done         bool
}

// NewTUIModel creates a new TUI model. root relativizes displayed paths.
func NewTUIModel(root string, getSnapshot func() []runner.FileStatus, cancelRun func()) TUIModel {
	return TUIModel{
		root:        root,
		getSnapshot: getSnapshot,
		cancelRun:   cancelRun,
	}
}

// Init implements tea.Model.
func (m TUIModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelRun != nil {
				m.cancelRun()
			}
			m.done = true
			return m, tea.Quit

		case "p", " ":
			m.paused = !m.paused

		case "j", "down":
			m.scrollDown(1)

		case "k", "up":
			m.scrollUp(1)

		case "g", "home":
			m.scrollOffset = 0

		case "G", "end":
			m.scrollOffset = m.maxScroll()

		case "pgdown":
			m.scrollDown(m.visibleFiles())

		case "pgup":
			m.scrollUp(m.visibleFiles())
		}

	case tickMsg:
		if !m.paused {
			m.files = m.getSnapshot()
		}
		m.frame++
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m *TUIModel) scrollDown(n int) {
	m.scrollOffset += n
	if max := m.maxScroll(); m.scrollOffset > max {
		m.scrollOffset = max
	}
}

func (m *TUIModel) scrollUp(n int) {
	m.scrollOffset -= n
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m TUIModel) visibleFiles() int {
	// header(1) + progress(1) + blank(1) + help(1) = 4 reserved lines
	avail := m.height - 4
	if avail < 3 {
		return 3
	}
	return avail
}

func (m TUIModel) maxScroll() int {
	total := len(m.files)
	vis := m.visibleFiles()
	if total <= vis {
		return 0
	}
	return total - vis
}

// View implements tea.Model.
func (m TUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	var passed, failed, running, skipped, queued int
	var testsPassed, testsFailed int
	for _, fs := range m.files {
		switch fs.State {
		case runner.StatePassed:
			passed++
		case runner.StateFailed:
			failed++
		case runner.StateRunning:
			running++
		case runner.StateSkipped:
			skipped++
		default:
			queued++
		}
		testsPassed += fs.Passed
		testsFailed += fs.Failed
	}

	header := fmt.Sprintf("tckrunner: %d test files", len(m.files))
	if m.paused {
		header += "  " + pauseStyle.Render("⏸ PAUSED")
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(m.progressLine(passed, failed, running, skipped, queued, testsPassed, testsFailed))
	b.WriteString("\n")

	fileLines := m.buildFileLines()

	vis := m.visibleFiles()
	start := m.scrollOffset
	end := start + vis
	if end > len(fileLines) {
		end = len(fileLines)
	}
	if start > len(fileLines) {
		start = len(fileLines)
	}

	if start > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↑ %d more above", start)))
		b.WriteString("\n")
	}

	for i := start; i < end; i++ {
		b.WriteString(fileLines[i])
		b.WriteString("\n")
	}

	if end < len(fileLines) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↓ %d more below", len(fileLines)-end)))
		b.WriteString("\n")
	}

	// pad to fill screen
	used := 2 + (end - start) + 1
	if start > 0 {
		used++
	}
	if end < len(fileLines) {
		used++
	}
	for i := used; i < m.height-1; i++ {
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("  ↑↓/jk: scroll  g/G: top/bottom  p: pause  q: quit"))

	return b.String()
}

func (m TUIModel) buildFileLines() []string {
	// sort buckets: failed → running → done → skipped → queued
	var failed, running, done, skipped, queued []runner.FileStatus
	for _, fs := range m.files {
		switch fs.State {
		case runner.StateFailed:
			failed = append(failed, fs)
		case runner.StateRunning:
			running = append(running, fs)
		case runner.StatePassed:
			done = append(done, fs)
		case runner.StateSkipped:
			skipped = append(skipped, fs)
		default:
			queued = append(queued, fs)
		}
	}

	spinner := spinnerFrames[m.frame%len(spinnerFrames)]
	var lines []string

	for _, fs := range failed {
		lines = append(lines, m.fmtFailed(fs))
	}
	for _, fs := range running {
		elapsed := Elapsed(time.Since(fs.StartedAt))
		lines = append(lines, runStyle.Render(fmt.Sprintf("  %s %-8s %-50s %s", spinner, "running", m.fileName(fs), elapsed)))
	}
	for _, fs := range done {
		lines = append(lines, doneStyle.Render(fmt.Sprintf("  ✓ %-8s %-50s %d tests, %s", "passed", m.fileName(fs), fs.Passed, fs.Duration.Truncate(time.Millisecond))))
	}
	for _, fs := range skipped {
		lines = append(lines, skipStyle.Render(fmt.Sprintf("  ⊘ %-8s %-50s", "skipped", m.fileName(fs))))
	}
	for _, fs := range queued {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  ─ %-8s %-50s", "queued", m.fileName(fs))))
	}

	return lines
}

func (m TUIModel) fmtFailed(fs runner.FileStatus) string {
	detail := fmt.Sprintf("%d of %d tests failed", fs.Failed, fs.Passed+fs.Failed)
	if fs.Err != "" {
		detail = fs.Err
		if len(detail) > 60 {
			detail = detail[:60] + "..."
		}
	}
	return failedStyle.Render(fmt.Sprintf("  ✗ %-8s %-50s %s", "failed", m.fileName(fs), detail))
}

func (m TUIModel) fileName(fs runner.FileStatus) string {
	rel, err := filepath.Rel(m.root, fs.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fs.Path
	}
	return filepath.ToSlash(rel)
}

func (m TUIModel) progressLine(passed, failed, running, skipped, queued, testsPassed, testsFailed int) string {
	var parts []string
	if passed > 0 {
		parts = append(parts, doneStyle.Render(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		parts = append(parts, failedStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	if running > 0 {
		parts = append(parts, runStyle.Render(fmt.Sprintf("%d running", running)))
	}
	if skipped > 0 {
		parts = append(parts, skipStyle.Render(fmt.Sprintf("%d skipped", skipped)))
	}
	if queued > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d queued", queued)))
	}
	parts = append(parts, fmt.Sprintf("tests %d/%d", testsPassed, testsPassed+testsFailed))
	return fmt.Sprintf("  %s", strings.Join(parts, "  "))
}
