// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package audit runs the password analysis over a batch of passwords, one per line.
package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alvinbaena/breachguard/internal/util"
	"github.com/alvinbaena/breachguard/pkg/analysis"
	"github.com/rs/zerolog/log"
	"github.com/thinhdanggroup/executor"
)

// maxLineSize is larger than any valid password so over-long lines reach the estimator and are
// reported as invalid instead of stopping the scan.
const maxLineSize = 64 * 1024

// Analyzer is satisfied by *analysis.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, password string) (analysis.Result, error)
}

type Config struct {
	// Workers is the number of concurrent analyses. Zero uses twice the number of CPUs.
	Workers int
	// RequestsPerSecond caps the breach lookups started per second. Zero is unlimited.
	RequestsPerSecond int
	// WeakBelow is the score under which a password is counted as weak.
	WeakBelow int
	// Progress is the interval between progress logs. Zero disables them.
	Progress time.Duration
}

// Entry is the outcome for one line. The password itself is never kept.
type Entry struct {
	Line   int             `json:"line"`
	Score  int             `json:"score"`
	Band   string          `json:"band"`
	Breach analysis.Breach `json:"breach"`
	Error  string          `json:"error,omitempty"`
}

type Summary struct {
	Total    int           `json:"total"`
	Found    int           `json:"found"`
	NotFound int           `json:"not_found"`
	Unknown  int           `json:"unknown"`
	Skipped  int           `json:"skipped"`
	Invalid  int           `json:"invalid"`
	Weak     int           `json:"weak"`
	Elapsed  time.Duration `json:"elapsed"`
	Entries  []Entry       `json:"entries"`
}

type Auditor struct {
	analyzer Analyzer
	cfg      Config
}

func New(analyzer Analyzer, cfg Config) *Auditor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * 2
	}
	if cfg.WeakBelow <= 0 {
		cfg.WeakBelow = 40
	}

	return &Auditor{analyzer: analyzer, cfg: cfg}
}

// Run audits every non-blank line of r. Lines still queued when ctx is done are reported as skipped,
// and the returned error is ctx.Err() alongside the partial summary.
func (a *Auditor) Run(ctx context.Context, r io.Reader) (Summary, error) {
	s := util.Stats()
	defer s()

	tasks, err := executor.New(executor.Config{
		ReqPerSeconds: a.cfg.RequestsPerSecond,
		QueueSize:     2 * a.cfg.Workers,
		NumWorkers:    a.cfg.Workers,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("error creating worker pool: %w", err)
	}
	defer tasks.Close()

	stat := newStatus(a.cfg.Progress)
	stat.BeginProgress()

	var (
		mu      sync.Mutex
		entries []Entry
	)

	process := func(line int, password string) {
		entry := a.audit(ctx, line, password)

		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()

		stat.Processed(entry.Breach.Status == analysis.StatusFound, entry.Breach.Status == analysis.StatusUnknown)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineSize)

	line := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		line++
		password := strings.TrimSuffix(scanner.Text(), "\r")
		if password == "" {
			continue
		}

		stat.Queued()
		if err = tasks.Publish(process, line, password); err != nil {
			log.Panic().Err(err).Msgf("there is a programming error here.")
		}
	}

	tasks.Wait()
	elapsed := stat.Done()

	summary := summarize(entries, a.cfg.WeakBelow)
	summary.Elapsed = elapsed

	if err = scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return summary, fmt.Errorf("line %d is longer than %d bytes: %w", line+1, maxLineSize, err)
		}
		return summary, fmt.Errorf("error reading passwords: %w", err)
	}

	return summary, ctx.Err()
}

func (a *Auditor) audit(ctx context.Context, line int, password string) Entry {
	if ctx.Err() != nil {
		return Entry{Line: line, Breach: analysis.Breach{Status: analysis.StatusSkipped}}
	}

	result, err := a.analyzer.Analyze(ctx, password)
	if err != nil {
		log.Debug().Msgf("line %d rejected", line)
		return Entry{Line: line, Breach: analysis.Breach{Status: analysis.StatusSkipped}, Error: err.Error()}
	}

	if result.Breach.Status == analysis.StatusUnknown {
		log.Warn().Err(result.Breach.Err).Msgf("breach lookup for line %d failed", line)
	}

	return Entry{
		Line:   line,
		Score:  result.Strength.Score,
		Band:   result.Strength.Band,
		Breach: result.Breach,
	}
}

func summarize(entries []Entry, weakBelow int) Summary {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Line < entries[j].Line
	})

	summary := Summary{Total: len(entries), Entries: entries}
	for _, e := range entries {
		if e.Error != "" {
			summary.Invalid++
			continue
		}

		switch e.Breach.Status {
		case analysis.StatusFound:
			summary.Found++
		case analysis.StatusNotFound:
			summary.NotFound++
		case analysis.StatusUnknown:
			summary.Unknown++
		case analysis.StatusSkipped:
			summary.Skipped++
			continue
		}

		if e.Score < weakBelow {
			summary.Weak++
		}
	}

	return summary
}

// Failed reports whether any password in the batch was breached or could not be checked.
func (s Summary) Failed() bool {
	return s.Found > 0 || s.Unknown > 0
}
