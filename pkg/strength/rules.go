package strength

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go/scoring"
)

// Categories used by the built-in rules.
const (
	CategoryEmpty       = "empty"
	CategoryLength      = "length"
	CategoryRepeat      = "repeat"
	CategorySequence    = "sequence"
	CategoryCommon      = "common"
	CategoryClasses     = "classes"
	CategoryDictionary  = "dictionary"
	categoryMissing     = "missing_class"
	categoryRecommended = "length_advisory"
)

// Sample is the precomputed view of a password shared by all rules of one estimate.
type Sample struct {
	Password string
	Runes    []rune
	Classes  []Class
	guess    *scoring.MinEntropyMatch
}

func (s *Sample) has(c Class) bool {
	for _, have := range s.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// Rule inspects a sample and returns zero or more findings. Rules must be deterministic and must not
// keep state between calls.
type Rule interface {
	Name() string
	Evaluate(s *Sample) []Finding
}

// DefaultRules builds the stock rule set from p, in evaluation order.
func DefaultRules(p Policy) []Rule {
	return []Rule{
		lengthRule{min: p.MinLength, recommended: p.RecommendedLength, penalty: p.ShortPenalty},
		commonRule{penalty: p.CommonPenalty},
		repeatRule{runLength: p.RepeatRunLength, maxRuns: p.MaxRunPenalties, penalty: p.RepeatPenalty},
		sequenceRule{runLength: p.SequenceRunLength, maxRuns: p.MaxRunPenalties, penalty: p.SequencePenalty},
		classRule{penalty: p.SingleClassPenalty},
		dictionaryRule{tokenLength: p.DictionaryTokenLength, penalty: p.DictionaryPenalty},
	}
}

type lengthRule struct {
	min         int
	recommended int
	penalty     int
}

func (lengthRule) Name() string { return CategoryLength }

func (r lengthRule) Evaluate(s *Sample) []Finding {
	switch n := len(s.Runes); {
	case n < r.min:
		return []Finding{{
			Category: CategoryLength,
			Severity: High,
			Message:  fmt.Sprintf("too short: %d characters, use at least %d", n, r.min),
			Delta:    -r.penalty,
		}}
	case n < r.recommended:
		return []Finding{{
			Category: categoryRecommended,
			Severity: Low,
			Message:  fmt.Sprintf("%d characters or more is recommended", r.recommended),
		}}
	}
	return nil
}

type repeatRule struct {
	runLength int
	maxRuns   int
	penalty   int
}

func (repeatRule) Name() string { return CategoryRepeat }

func (r repeatRule) Evaluate(s *Sample) []Finding {
	runs := repeatRuns(s.Runes, r.runLength)
	if runs == 0 {
		return nil
	}

	return []Finding{{
		Category: CategoryRepeat,
		Severity: Medium,
		Message:  fmt.Sprintf("%s of %d or more repeated characters", plural(runs, "run"), r.runLength),
		Delta:    -r.penalty * min(runs, r.maxRuns),
	}}
}

// repeatRuns counts runs of at least n identical consecutive runes.
func repeatRuns(runes []rune, n int) int {
	runs := 0
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && runes[i] == runes[start] {
			continue
		}
		if i-start >= n {
			runs++
		}
		start = i
	}
	return runs
}

type sequenceRule struct {
	runLength int
	maxRuns   int
	penalty   int
}

func (sequenceRule) Name() string { return CategorySequence }

func (r sequenceRule) Evaluate(s *Sample) []Finding {
	runs := sequenceRuns(s.Runes, r.runLength)
	if runs == 0 {
		return nil
	}

	return []Finding{{
		Category: CategorySequence,
		Severity: Medium,
		Message:  fmt.Sprintf("%s of %d or more sequential characters, like abcd or 4321", plural(runs, "run"), r.runLength),
		Delta:    -r.penalty * min(runs, r.maxRuns),
	}}
}

// sequenceRuns counts ascending or descending runs of at least n letters or digits.
func sequenceRuns(runes []rune, n int) int {
	runs := 0
	start := 0
	dir := 0
	for i := 1; i <= len(runes); i++ {
		d := 0
		if i < len(runes) {
			d = step(runes[i-1], runes[i])
		}
		if d != 0 && (dir == 0 || d == dir) {
			dir = d
			continue
		}

		if dir != 0 && i-start >= n {
			runs++
		}

		if d != 0 {
			// The turning point belongs to both runs.
			start, dir = i-1, d
		} else {
			start, dir = i, 0
		}
	}
	return runs
}

// step returns 1 or -1 when b follows or precedes a in the alphabet or the digits, 0 otherwise.
func step(a, b rune) int {
	a, b = unicode.ToLower(a), unicode.ToLower(b)
	sameKind := (a >= 'a' && a <= 'z' && b >= 'a' && b <= 'z') || (a >= '0' && a <= '9' && b >= '0' && b <= '9')
	if !sameKind {
		return 0
	}

	switch b - a {
	case 1:
		return 1
	case -1:
		return -1
	}
	return 0
}

type commonRule struct {
	penalty int
}

func (commonRule) Name() string { return CategoryCommon }

func (r commonRule) Evaluate(s *Sample) []Finding {
	lower := strings.ToLower(s.Password)
	base := strings.TrimRightFunc(lower, func(r rune) bool {
		return classOf(r) == Digit || classOf(r) == Symbol
	})

	var msg string
	switch {
	case isCommonPassword(lower):
		msg = "appears in the list of most common passwords"
	case base != lower && isCommonPassword(base):
		msg = "is a common password with digits or symbols appended"
	default:
		return nil
	}

	return []Finding{{
		Category: CategoryCommon,
		Severity: Critical,
		Message:  msg,
		Delta:    -r.penalty,
	}}
}

type classRule struct {
	penalty int
}

func (classRule) Name() string { return CategoryClasses }

var missingAdvice = []struct {
	class Class
	msg   string
}{
	{Lower, "add lowercase letters"},
	{Upper, "add uppercase letters"},
	{Digit, "add numbers"},
	{Symbol, "add symbols"},
}

func (r classRule) Evaluate(s *Sample) []Finding {
	var findings []Finding
	if len(s.Classes) == 1 {
		findings = append(findings, Finding{
			Category: CategoryClasses,
			Severity: Medium,
			Message:  fmt.Sprintf("uses only %s characters", s.Classes[0]),
			Delta:    -r.penalty,
		})
	}

	for _, m := range missingAdvice {
		if !s.has(m.class) {
			findings = append(findings, Finding{Category: categoryMissing, Severity: Info, Message: m.msg})
		}
	}
	return findings
}

type dictionaryRule struct {
	tokenLength int
	penalty     int
}

func (dictionaryRule) Name() string { return CategoryDictionary }

// Evaluate charges once for any dictionary words zxcvbn found, however many.
func (r dictionaryRule) Evaluate(s *Sample) []Finding {
	if s.guess == nil {
		return nil
	}

	words := 0
	for _, m := range s.guess.MatchSequence {
		if m.Pattern == "dictionary" && len([]rune(m.Token)) >= r.tokenLength {
			words++
		}
	}
	if words == 0 {
		return nil
	}

	return []Finding{{
		Category: CategoryDictionary,
		Severity: Low,
		Message:  fmt.Sprintf("contains %s found in dictionaries", plural(words, "word")),
		Delta:    -r.penalty,
	}}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
