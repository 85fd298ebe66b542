// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alvinbaena/breachguard/pkg/hibp"
	"github.com/alvinbaena/breachguard/pkg/strength"
)

type fakeChecker struct {
	verdict hibp.Verdict
	err     error
	delay   time.Duration
	calls   int32
}

func (f *fakeChecker) Check(ctx context.Context, _ string) (hibp.Verdict, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return hibp.Verdict{}, &hibp.NetworkError{Prefix: "CBFDA", Err: ctx.Err()}
		}
	}
	return f.verdict, f.err
}

func newAnalyzer(checker BreachChecker, timeout time.Duration) *Analyzer {
	return New(strength.NewEstimator(strength.DefaultPolicy()), checker, timeout)
}

func TestAnalyzer_Found(t *testing.T) {
	checker := &fakeChecker{verdict: hibp.Verdict{Breached: true, Occurrences: 42}}

	result, err := newAnalyzer(checker, time.Second).Analyze(context.Background(), "password123")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if result.Breach.Status != StatusFound || result.Breach.Occurrences != 42 {
		t.Errorf("Breach: %+v, want found with 42 occurrences", result.Breach)
	}

	if !result.Strength.HasCategory(strength.CategoryCommon) {
		t.Errorf("Strength report should be merged into the result")
	}
}

func TestAnalyzer_NotFound(t *testing.T) {
	result, err := newAnalyzer(&fakeChecker{}, time.Second).Analyze(context.Background(), "xk7#Lm2q-Vb9")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if result.Breach.Status != StatusNotFound || !result.Breach.Checked() {
		t.Errorf("Breach: %+v, want not_found", result.Breach)
	}
}

func TestAnalyzer_FailureIsUnknown(t *testing.T) {
	cases := []error{
		&hibp.NetworkError{Prefix: "CBFDA", Err: errors.New("connection refused")},
		&hibp.UpstreamError{Prefix: "CBFDA", StatusCode: 503},
	}

	for _, lookupErr := range cases {
		result, err := newAnalyzer(&fakeChecker{err: lookupErr}, time.Second).Analyze(context.Background(), "password123")
		if err != nil {
			t.Fatalf("Lookup failures should not fail the analysis: %s", err)
		}

		if result.Breach.Status != StatusUnknown {
			t.Errorf("Status: %s, want: %s", result.Breach.Status, StatusUnknown)
		}

		if result.Breach.Checked() {
			t.Errorf("A failed lookup should not count as checked")
		}

		if !errors.Is(result.Breach.Err, lookupErr) || result.Breach.Error == "" {
			t.Errorf("The lookup error should be kept, got: %+v", result.Breach)
		}
	}
}

func TestAnalyzer_Timeout(t *testing.T) {
	checker := &fakeChecker{delay: 5 * time.Second}

	start := time.Now()
	result, err := newAnalyzer(checker, 50*time.Millisecond).Analyze(context.Background(), "password123")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if time.Since(start) > time.Second {
		t.Errorf("Lookup should be bounded by the timeout")
	}

	if result.Breach.Status != StatusUnknown || !hibp.IsNetworkError(result.Breach.Err) {
		t.Errorf("Timed out lookup should be unknown with a network error, got: %+v", result.Breach)
	}
}

func TestAnalyzer_Cancelled(t *testing.T) {
	checker := &fakeChecker{delay: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newAnalyzer(checker, 0).Analyze(ctx, "password123")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if result.Breach.Status != StatusUnknown || !errors.Is(result.Breach.Err, context.Canceled) {
		t.Errorf("Cancelled lookup should be unknown, got: %+v", result.Breach)
	}
}

func TestAnalyzer_EmptySkipsLookup(t *testing.T) {
	checker := &fakeChecker{}

	result, err := newAnalyzer(checker, time.Second).Analyze(context.Background(), "")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if checker.calls != 0 {
		t.Errorf("Empty password should never reach the checker")
	}

	if result.Breach.Status != StatusSkipped {
		t.Errorf("Status: %s, want: %s", result.Breach.Status, StatusSkipped)
	}

	if result.Strength.Score != strength.MinScore || !result.Strength.HasCategory(strength.CategoryEmpty) {
		t.Errorf("Empty password should have the minimum score and an empty finding, got: %+v", result.Strength)
	}
}

func TestAnalyzer_InvalidInputSkipsLookup(t *testing.T) {
	checker := &fakeChecker{}

	_, err := newAnalyzer(checker, time.Second).Analyze(context.Background(), strings.Repeat("x", 300))
	if !errors.Is(err, strength.ErrInvalidInput) {
		t.Errorf("Should fail with ErrInvalidInput, got: %v", err)
	}

	if checker.calls != 0 {
		t.Errorf("Invalid input should never reach the checker")
	}
}

// End to end over a TLS test server: only the prefix leaves the process.
func TestAnalyzer_RangeServer(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.String())
		for _, v := range r.Header {
			seen = append(seen, v...)
		}
		mu.Unlock()
		_, _ = fmt.Fprint(w, "C5EE3B7B4F8B14B8C46F7CE2A32A58E3E61:3\r\nC6008F9CAB4083784EA22229C5A85DDA33A:99\r\n")
	}))
	defer server.Close()

	client, err := hibp.NewClient(hibp.ClientConfig{Endpoint: server.URL + "/range", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("Should not fail creating client: %s", err)
	}

	a := newAnalyzer(hibp.NewChecker(client, nil), time.Second)
	result, err := a.Analyze(context.Background(), "password123")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if result.Breach.Status != StatusFound || result.Breach.Occurrences != 99 {
		t.Errorf("Breach: %+v, want found with 99 occurrences", result.Breach)
	}

	mu.Lock()
	for _, s := range seen {
		if strings.Contains(s, "password123") || strings.Contains(strings.ToUpper(s), "C6008F9CAB4083784EA22229C5A85DDA33A") {
			t.Errorf("Request leaked the password or suffix: %q", s)
		}
	}
	mu.Unlock()

	// Closed server: status must be unknown, never not_found.
	server.Close()
	result, err = a.Analyze(context.Background(), "password123")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if result.Breach.Status != StatusUnknown || !hibp.IsNetworkError(result.Breach.Err) {
		t.Errorf("Breach: %+v, want unknown with a network error", result.Breach)
	}
}
