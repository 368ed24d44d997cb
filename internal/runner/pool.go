package runner

import (
	"context"
	"sync"
)

// PoolConfig holds parallel execution parameters.
type PoolConfig struct {
	Workers       int
	StopOnFailure bool
	OnStart       func(path string) // called from workers as files begin
	OnResult      func(*FileResult) // called in discovery order as files complete
}

// Pool distributes test files across workers and collects their
// results in discovery order.
type Pool struct {
	cfg    PoolConfig
	runner *Runner
}

// NewPool creates a pool running files through the given runner.
func NewPool(runner *Runner, cfg PoolConfig) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pool{cfg: cfg, runner: runner}
}

type indexedResult struct {
	index  int
	result *FileResult
}

// Run executes all files and returns their results ordered as given.
// With StopOnFailure set, the first failing file cancels the context
// and the remaining files are reported as skipped.
func (p *Pool) Run(ctx context.Context, files []string) []*FileResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	work := make(chan int, len(files))
	out := make(chan indexedResult, len(files))

	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				var fr *FileResult
				if ctx.Err() != nil {
					fr = &FileResult{Path: files[idx], Skipped: true}
				} else {
					if p.cfg.OnStart != nil {
						p.cfg.OnStart(files[idx])
					}
					fr = p.runner.RunFile(ctx, files[idx])
					if p.cfg.StopOnFailure && fr.Failed() {
						cancel()
					}
				}
				out <- indexedResult{index: idx, result: fr}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(out)
	}()

	// emit in discovery order, buffering results that finish early
	results := make([]*FileResult, len(files))
	pending := make(map[int]*FileResult)
	next := 0
	for ir := range out {
		pending[ir.index] = ir.result
		for {
			fr, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			results[next] = fr
			if p.cfg.OnResult != nil {
				p.cfg.OnResult(fr)
			}
			next++
		}
	}
	return results
}
