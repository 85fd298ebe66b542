// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package analysis combines the local strength estimate with the breach lookup.
package analysis

import (
	"context"
	"time"

	"github.com/alvinbaena/breachguard/pkg/hibp"
	"github.com/alvinbaena/breachguard/pkg/strength"
)

type BreachStatus string

const (
	// StatusFound means the lookup completed and the password is in the corpus.
	StatusFound BreachStatus = "found"
	// StatusNotFound means the lookup completed and the password is not in the corpus.
	StatusNotFound BreachStatus = "not_found"
	// StatusUnknown means the lookup failed. It must never be read as "not found".
	StatusUnknown BreachStatus = "unknown"
	// StatusSkipped means no lookup was attempted, e.g. for an empty password.
	StatusSkipped BreachStatus = "skipped"
)

// Breach is the breach half of a Result.
type Breach struct {
	Status      BreachStatus `json:"status"`
	Occurrences uint64       `json:"occurrences"`
	Error       string       `json:"error,omitempty"`
	// Err is the lookup failure behind StatusUnknown.
	Err error `json:"-"`
}

// Checked reports whether the lookup completed.
func (b Breach) Checked() bool {
	return b.Status == StatusFound || b.Status == StatusNotFound
}

// BreachFromVerdict maps a lookup outcome to a Breach.
func BreachFromVerdict(v hibp.Verdict, err error) Breach {
	switch {
	case err != nil:
		return Breach{Status: StatusUnknown, Error: err.Error(), Err: err}
	case v.Breached:
		return Breach{Status: StatusFound, Occurrences: v.Occurrences}
	}
	return Breach{Status: StatusNotFound}
}

type Result struct {
	Strength strength.Report `json:"strength"`
	Breach   Breach          `json:"breach"`
}

// BreachChecker is satisfied by *hibp.Checker.
type BreachChecker interface {
	Check(ctx context.Context, password string) (hibp.Verdict, error)
}

type Analyzer struct {
	estimator *strength.Estimator
	checker   BreachChecker
	timeout   time.Duration
}

// New creates an analyzer. timeout bounds the breach lookup, zero leaves it to ctx and the client.
func New(estimator *strength.Estimator, checker BreachChecker, timeout time.Duration) *Analyzer {
	return &Analyzer{estimator: estimator, checker: checker, timeout: timeout}
}

// Analyze scores password and looks it up concurrently. The only error is strength.ErrInvalidInput,
// returned before anything leaves the process. Lookup failures are reported as StatusUnknown.
func (a *Analyzer) Analyze(ctx context.Context, password string) (Result, error) {
	if err := a.estimator.Validate(password); err != nil {
		return Result{}, err
	}

	if password == "" {
		report, err := a.estimator.Estimate(password)
		return Result{Strength: report, Breach: Breach{Status: StatusSkipped}}, err
	}

	lookupCtx, cancel := a.lookupContext(ctx)
	defer cancel()

	breach := make(chan Breach, 1)
	go func() {
		breach <- BreachFromVerdict(a.checker.Check(lookupCtx, password))
	}()

	report, err := a.estimator.Estimate(password)
	if err != nil {
		cancel()
		<-breach
		return Result{}, err
	}

	return Result{Strength: report, Breach: <-breach}, nil
}

// Strength is the estimate alone, without a lookup.
func (a *Analyzer) Strength(password string) (strength.Report, error) {
	return a.estimator.Estimate(password)
}

func (a *Analyzer) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}
	return context.WithCancel(ctx)
}
