package runner

import (
	"sync"
	"time"
)

// FileState is the execution state of one test file.
type FileState int

const (
	StateQueued FileState = iota
	StateRunning
	StatePassed
	StateFailed
	StateSkipped
)

// FileStatus is a snapshot of one test file's progress.
type FileStatus struct {
	Path      string
	State     FileState
	Passed    int
	Failed    int
	Err       string
	StartedAt time.Time
	Duration  time.Duration
}

// Progress tracks per-file execution state for live displays. All
// methods are safe for concurrent use.
type Progress struct {
	mu     sync.Mutex
	order  []string
	byPath map[string]*FileStatus
}

// NewProgress creates a tracker with all files queued, preserving the
// given order for display.
func NewProgress(paths []string) *Progress {
	p := &Progress{byPath: make(map[string]*FileStatus, len(paths))}
	for _, path := range paths {
		p.order = append(p.order, path)
		p.byPath[path] = &FileStatus{Path: path}
	}
	return p
}

// Start marks a file as running.
func (p *Progress) Start(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fs, ok := p.byPath[path]; ok {
		fs.State = StateRunning
		fs.StartedAt = time.Now()
	}
}

// Finish records the result of a completed file.
func (p *Progress) Finish(fr *FileResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fs, ok := p.byPath[fr.Path]
	if !ok {
		return
	}
	if !fs.StartedAt.IsZero() {
		fs.Duration = time.Since(fs.StartedAt)
	}
	switch {
	case fr.Skipped:
		fs.State = StateSkipped
	case fr.Failed():
		fs.State = StateFailed
	default:
		fs.State = StatePassed
	}
	fs.Err = fr.Err
	for _, o := range fr.Outcomes {
		if o.Passed {
			fs.Passed++
		} else {
			fs.Failed++
		}
	}
}

// Snapshot returns a copy of all file statuses in display order.
func (p *Progress) Snapshot() []FileStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]FileStatus, 0, len(p.order))
	for _, path := range p.order {
		out = append(out, *p.byPath[path])
	}
	return out
}

// Counts returns aggregate progress numbers.
func (p *Progress) Counts() (filesDone, filesTotal, passed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	filesTotal = len(p.order)
	for _, fs := range p.byPath {
		switch fs.State {
		case StatePassed, StateFailed, StateSkipped:
			filesDone++
		}
		passed += fs.Passed
		failed += fs.Failed
	}
	return filesDone, filesTotal, passed, failed
}
