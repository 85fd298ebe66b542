package strength

import (
	"fmt"
	"math"
)

const (
	minute = 60.0
	hour   = 60 * minute
	day    = 24 * hour
	year   = 365 * day
)

// CrackTime renders the time an exhaustive search over 2^entropy guesses takes at guessesPerSecond.
func CrackTime(entropy, guessesPerSecond float64) string {
	if guessesPerSecond <= 0 {
		guessesPerSecond = 1
	}

	seconds := math.Exp2(entropy) / guessesPerSecond
	switch {
	case seconds < minute:
		return "instantly"
	case seconds < hour:
		return fmt.Sprintf("%d minutes", int(seconds/minute))
	case seconds < day:
		return fmt.Sprintf("%d hours", int(seconds/hour))
	case seconds < year:
		return fmt.Sprintf("%d days", int(seconds/day))
	case seconds < 100*year:
		return fmt.Sprintf("%d years", int(seconds/year))
	}
	return "centuries"
}
