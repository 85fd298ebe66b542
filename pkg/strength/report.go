package strength

import "sort"

type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
	Info     Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case Critical:
		return 4
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	}
	return 0
}

// Finding explains one observation about a password. Delta is the score change it caused, zero or
// negative. Messages never quote the password.
type Finding struct {
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Delta    int      `json:"delta"`
}

// Guessability is zxcvbn's opinion of the password, reported next to the pool based estimate.
type Guessability struct {
	Score            int    `json:"score"`
	CrackTimeDisplay string `json:"crack_time_display"`
}

// Report is the result of an estimate. EntropyBits is length * log2(pool size) for the character
// classes present, which overstates the entropy of anything but random passwords.
type Report struct {
	Score        int          `json:"score"`
	Band         string       `json:"band"`
	Length       int          `json:"length"`
	EntropyBits  float64      `json:"entropy_bits"`
	CharsetSize  int          `json:"charset_size"`
	Classes      []Class      `json:"classes"`
	CrackTime    string       `json:"crack_time"`
	Guessability Guessability `json:"guessability"`
	Findings     []Finding    `json:"findings"`
}

// HasCategory reports whether any finding has the given category.
func (r Report) HasCategory(category string) bool {
	for _, f := range r.Findings {
		if f.Category == category {
			return true
		}
	}
	return false
}

// sortFindings orders findings most severe first, keeping rule order between equals.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.rank() > findings[j].Severity.rank()
	})
}
