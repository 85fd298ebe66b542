// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"strings"
)

// Verdict is the outcome of a completed lookup. A failed lookup never produces a Verdict.
type Verdict struct {
	Breached    bool   `json:"breached"`
	Occurrences uint64 `json:"occurrences"`
}

// RangeQuerier fetches the candidate set for a prefix. *Client implements it.
type RangeQuerier interface {
	Range(ctx context.Context, prefix string) (CandidateSet, error)
}

// Checker matches passwords against the breach corpus using k-anonymity range queries.
type Checker struct {
	ranges   RangeQuerier
	digester Digester
}

// NewChecker creates a checker over ranges. A nil digester uses SHA1, the digest the corpus is keyed by.
func NewChecker(ranges RangeQuerier, digester Digester) *Checker {
	if digester == nil {
		digester = SHA1{}
	}

	return &Checker{ranges: ranges, digester: digester}
}

// Check reports whether password appears in the corpus. Lookup failures are returned as errors and
// must be treated as an unknown status, never as "not breached".
func (c *Checker) Check(ctx context.Context, password string) (Verdict, error) {
	if password == "" {
		return Verdict{}, ErrEmptyPassword
	}

	return c.CheckDigest(ctx, c.digester.Sum(password))
}

// CheckDigest is Check for a caller that already holds the hex digest.
func (c *Checker) CheckDigest(ctx context.Context, digest string) (Verdict, error) {
	d, err := Split(digest)
	if err != nil {
		return Verdict{}, err
	}

	set, err := c.ranges.Range(ctx, d.Prefix)
	if err != nil {
		return Verdict{}, err
	}

	return Match(set, d.Suffix), nil
}

// Match looks suffix up in set, ignoring hex case.
func Match(set CandidateSet, suffix string) Verdict {
	if count, ok := set[strings.ToUpper(suffix)]; ok && count > 0 {
		return Verdict{Breached: true, Occurrences: count}
	}

	return Verdict{}
}
