// Package runner executes TCK test files against a DMN evaluation
// service and aggregates the results into a run report.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/tckrunner/internal/client"
	"github.com/ppiankov/tckrunner/internal/dmn"
	"github.com/ppiankov/tckrunner/internal/tck"
)

// Evaluator sends an evaluation request for a single invocable.
type Evaluator interface {
	Evaluate(ctx context.Context, invocable string, inputs []client.InputDTO) (*client.ValueDTO, error)
}

// Runner executes test files using the model index to resolve
// invocable paths.
type Runner struct {
	index     *dmn.Index
	evaluator Evaluator
}

// New returns a Runner backed by the given model index and evaluator.
func New(index *dmn.Index, evaluator Evaluator) *Runner {
	return &Runner{index: index, evaluator: evaluator}
}

// RunFile parses and executes a single test file. Parse and lookup
// failures are reported through FileResult.Err rather than an error
// return so a bad file never aborts the run.
func (r *Runner) RunFile(ctx context.Context, path string) *FileResult {
	fr := &FileResult{Path: path}

	cases, err := tck.ParseFile(path)
	if err != nil {
		fr.Err = err.Error()
		return fr
	}
	modelFile := cases.ModelName
	if modelFile == "" {
		fr.Err = "test file does not name a model"
		return fr
	}
	modelName, err := r.index.ModelName(modelFile)
	if err != nil {
		fr.Err = err.Error()
		return fr
	}

	for _, tc := range cases.Cases {
		for i, node := range tc.Results {
			if ctx.Err() != nil {
				fr.Skipped = true
				return fr
			}
			testID := tc.ID
			if i > 0 {
				testID = fmt.Sprintf("%s:%d", tc.ID, i)
			}
			invocable := tc.InvocableName
			if invocable == "" {
				invocable = node.Name
			}
			outcome := TestOutcome{
				File:      path,
				CaseID:    tc.ID,
				TestID:    testID,
				ModelName: modelName,
				Invocable: invocable,
			}
			invocablePath, err := r.index.InvocablePath(modelFile, invocable)
			if err != nil {
				outcome.Remarks = err.Error()
			} else {
				r.execute(ctx, &outcome, tc.Inputs, node, invocablePath)
			}
			fr.Outcomes = append(fr.Outcomes, outcome)
		}
	}
	return fr
}

func (r *Runner) execute(ctx context.Context, outcome *TestOutcome, inputs []tck.InputNode, node tck.ResultNode, invocablePath string) {
	start := time.Now()
	actual, err := r.evaluator.Evaluate(ctx, invocablePath, client.InputsFrom(inputs))
	outcome.Duration = time.Since(start)

	if err != nil {
		outcome.Remarks = err.Error()
		return
	}

	var expected *client.ValueDTO
	if node.Expected != nil {
		expected = client.ValueDTOFrom(node.Expected)
	}

	switch {
	case actual == nil:
		outcome.Remarks = "no actual value"
	case expected == nil:
		outcome.Remarks = "no expected value"
	case actual.Equal(expected):
		outcome.Passed = true
	default:
		outcome.Remarks = "result differs from expected"
		outcome.Actual = actual
		outcome.Expected = expected
	}
}
