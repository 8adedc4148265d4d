// Package replay re-runs recorded decisions against their trees and reports drift.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/treedecide/internal/engine"
	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/instant"
)

// #region types

// CaseResult is the outcome of one expectation.
type CaseResult struct {
	Fixture string
	Title   string
	Passed  bool
	// Diff explains a failure.
	Diff string
	// Result is nil when the decision failed.
	Result *engine.Result
	Err    error
}

// Summary aggregates a replay run.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Observer is notified of every decision taken during a replay. It is called from
// several goroutines at once.
type Observer func(res *engine.Result, err error)

var errorKinds = map[string]error{
	"format":        errs.ErrFormat,
	"validation":    errs.ErrValidation,
	"null_decision": errs.ErrNullDecision,
	"time":          errs.ErrTime,
}

// floats within this tolerance are equal, absorbing JSON round trips of means.
const tolerance = 1e-9

// #endregion types

// #region check

// Check replays one expectation of f.
func Check(f *Fixture, exp Expectation) CaseResult {
	res, err := decide(f, exp)
	return compare(f, exp, res, err)
}

func decide(f *Fixture, exp Expectation) (*engine.Result, error) {
	var at *instant.Time
	if exp.Time != nil {
		var err error
		at, err = instant.New(exp.Time.T, exp.Time.TZ)
		if err != nil {
			return nil, err
		}
	}
	return engine.Decide(f.Tree, exp.Context, at)
}

func compare(f *Fixture, exp Expectation, res *engine.Result, err error) CaseResult {
	cr := CaseResult{Fixture: f.Name, Title: exp.Title, Result: res, Err: err}

	if exp.Error != nil {
		cr.Diff = compareError(*exp.Error, err)
		cr.Passed = cr.Diff == ""
		return cr
	}
	if err != nil {
		cr.Diff = fmt.Sprintf("unexpected error: %v", err)
		return cr
	}

	got := make(map[string]ExpectedOutput, len(res.Output))
	for name, d := range res.Output {
		want, ok := exp.Output[name]
		if !ok {
			got[name] = ExpectedOutput{PredictedValue: d.PredictedValue}
			continue
		}
		o := ExpectedOutput{PredictedValue: d.PredictedValue}
		if want.Confidence != nil {
			c := d.Confidence
			o.Confidence = &c
		}
		if want.StandardDeviation != nil {
			o.StandardDeviation = d.StandardDeviation
		}
		if want.DecisionRules != nil {
			o.DecisionRules = d.DecisionRules
		}
		got[name] = o
	}

	cr.Diff = cmp.Diff(exp.Output, got,
		cmpopts.EquateApprox(0, tolerance),
		cmpopts.EquateEmpty(),
	)
	cr.Passed = cr.Diff == ""
	return cr
}

func compareError(want ExpectedError, err error) string {
	if err == nil {
		return fmt.Sprintf("expected %s error %q, got a decision", want.Kind, want.Message)
	}
	if want.Kind != "" {
		sentinel, ok := errorKinds[want.Kind]
		if !ok {
			return fmt.Sprintf("unknown error kind %q", want.Kind)
		}
		if !errors.Is(err, sentinel) {
			return fmt.Sprintf("expected %s error, got %v", want.Kind, err)
		}
	}
	if want.Message != "" && want.Message != err.Error() {
		return fmt.Sprintf("error message mismatch:\n  want %q\n  got  %q", want.Message, err.Error())
	}
	return ""
}

// #endregion check

// #region run

// Run replays every expectation of every fixture with at most concurrency decisions in
// flight. Results keep fixture then expectation order. Cancelling ctx stops the run.
func Run(ctx context.Context, fixtures []*Fixture, concurrency int, observe Observer) ([]CaseResult, error) {
	type job struct {
		fixture *Fixture
		exp     Expectation
	}
	var jobs []job
	for _, f := range fixtures {
		for _, exp := range f.Expectations {
			jobs = append(jobs, job{fixture: f, exp: exp})
		}
	}

	results := make([]CaseResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := decide(j.fixture, j.exp)
			if observe != nil {
				observe(res, err)
			}
			results[i] = compare(j.fixture, j.exp, res, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return results, nil
}

// Summarize counts passed and failed cases.
func Summarize(results []CaseResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// #endregion run
