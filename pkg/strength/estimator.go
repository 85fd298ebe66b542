// Package strength scores passwords locally. Nothing here does I/O or keeps state between calls, an
// Estimator can be shared freely.
package strength

import (
	"errors"
	"fmt"
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/nbutton23/zxcvbn-go"
	"github.com/nbutton23/zxcvbn-go/scoring"
)

// ErrInvalidInput is returned for passwords that cannot be scored at all. Weak passwords are not
// errors, they get findings.
var ErrInvalidInput = errors.New("invalid password input")

type Estimator struct {
	policy Policy
	rules  []Rule
}

// NewEstimator creates an estimator for policy. Without rules, DefaultRules(policy) is used.
func NewEstimator(policy Policy, rules ...Rule) *Estimator {
	if len(rules) == 0 {
		rules = DefaultRules(policy)
	}

	return &Estimator{policy: policy, rules: rules}
}

func (e *Estimator) Policy() Policy {
	return e.policy
}

// Validate checks the input constraints without scoring.
func (e *Estimator) Validate(password string) error {
	if !utf8.ValidString(password) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidInput)
	}

	if n := utf8.RuneCountInString(password); n > e.policy.MaxLength {
		return fmt.Errorf("%w: %d characters exceeds the maximum of %d", ErrInvalidInput, n, e.policy.MaxLength)
	}

	for _, r := range password {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control characters are not allowed", ErrInvalidInput)
		}
	}

	return nil
}

// Estimate scores password. The same input always yields the same report.
func (e *Estimator) Estimate(password string) (Report, error) {
	if err := e.Validate(password); err != nil {
		return Report{}, err
	}

	if password == "" {
		return Report{
			Score:     MinScore,
			Band:      e.policy.BandFor(MinScore),
			Classes:   []Class{},
			CrackTime: CrackTime(0, e.policy.GuessesPerSecond),
			Findings: []Finding{{
				Category: CategoryEmpty,
				Severity: Critical,
				Message:  "empty password",
				Delta:    -MaxScore,
			}},
		}, nil
	}

	s := &Sample{Password: password, Runes: []rune(password)}
	s.Classes = classify(s.Runes)
	s.guess = guess(s.Runes, e.policy.GuessLength)

	size := charsetSize(s.Classes)
	entropy := float64(len(s.Runes)) * math.Log2(float64(size))

	raw := int(math.Round(math.Min(MaxScore, entropy*MaxScore/e.policy.EntropyForMaxScore)))
	findings := make([]Finding, 0)
	for _, rule := range e.rules {
		for _, f := range rule.Evaluate(s) {
			raw += f.Delta
			findings = append(findings, f)
		}
	}
	sortFindings(findings)

	score := clamp(raw, MinScore, MaxScore)
	report := Report{
		Score:       score,
		Band:        e.policy.BandFor(score),
		Length:      len(s.Runes),
		EntropyBits: entropy,
		CharsetSize: size,
		Classes:     s.Classes,
		CrackTime:   CrackTime(entropy, e.policy.GuessesPerSecond),
		Findings:    findings,
	}

	if s.guess != nil {
		report.Guessability = Guessability{Score: s.guess.Score, CrackTimeDisplay: s.guess.CrackTimeDisplay}
	}

	return report, nil
}

// Guess exposes the zxcvbn match for custom rules. It covers the first Policy.GuessLength characters
// only, and is nil if zxcvbn was skipped or could not evaluate the password.
func (s *Sample) Guess() *scoring.MinEntropyMatch {
	return s.guess
}

// guess runs zxcvbn over at most limit leading runes.
func guess(runes []rune, limit int) (m *scoring.MinEntropyMatch) {
	if limit <= 0 {
		return nil
	}
	if len(runes) > limit {
		runes = runes[:limit]
	}

	defer func() {
		// A matcher panic leaves the report without guessability.
		if recover() != nil {
			m = nil
		}
	}()

	result := zxcvbn.PasswordStrength(string(runes), nil)
	return &result
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
