package strength

// Band names a score range. A report gets the last band whose MinScore it reaches.
type Band struct {
	Name     string `json:"name"`
	MinScore int    `json:"min_score"`
}

// Policy holds every threshold and weight the estimator uses. These are policy choices, not derived
// values, so they are kept together and exposed through configuration.
type Policy struct {
	// MaxLength is the longest accepted password, in characters.
	MaxLength int
	// MinLength is the length below which a password gets the short penalty.
	MinLength int
	// RecommendedLength is the length below which a password gets a length advisory.
	RecommendedLength int
	// RepeatRunLength is the shortest run of identical characters that is penalised.
	RepeatRunLength int
	// SequenceRunLength is the shortest ascending or descending run that is penalised.
	SequenceRunLength int
	// MaxRunPenalties caps how many repeat or sequence runs are charged.
	MaxRunPenalties int
	// DictionaryTokenLength is the shortest dictionary word that is penalised.
	DictionaryTokenLength int
	// GuessLength is how many leading characters zxcvbn matches against. Its l33t matcher grows
	// much faster than the input, so longer passwords are only matched on this prefix. Zero skips
	// zxcvbn, leaving the report without guessability and dictionary findings.
	GuessLength int

	// EntropyForMaxScore is the estimated entropy, in bits, that maps to a raw score of 100.
	EntropyForMaxScore float64
	// GuessesPerSecond is the attacker rate used for the crack time estimate.
	GuessesPerSecond float64

	ShortPenalty       int
	RepeatPenalty      int
	SequencePenalty    int
	CommonPenalty      int
	SingleClassPenalty int
	DictionaryPenalty  int

	// Bands must be sorted by MinScore, the first one starting at 0.
	Bands []Band
}

const (
	MinScore = 0
	MaxScore = 100
)

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxLength:             256,
		MinLength:             8,
		RecommendedLength:     12,
		RepeatRunLength:       3,
		SequenceRunLength:     4,
		MaxRunPenalties:       3,
		DictionaryTokenLength: 4,
		GuessLength:           32,
		EntropyForMaxScore:    80,
		// A large GPU cluster against a fast unsalted hash.
		GuessesPerSecond:   1e11,
		ShortPenalty:       25,
		RepeatPenalty:      10,
		SequencePenalty:    10,
		CommonPenalty:      40,
		SingleClassPenalty: 10,
		DictionaryPenalty:  10,
		Bands: []Band{
			{Name: "very weak", MinScore: 0},
			{Name: "weak", MinScore: 20},
			{Name: "fair", MinScore: 40},
			{Name: "strong", MinScore: 60},
			{Name: "very strong", MinScore: 80},
		},
	}
}

// BandFor returns the band name for score.
func (p Policy) BandFor(score int) string {
	name := ""
	for _, b := range p.Bands {
		if score >= b.MinScore {
			name = b.Name
		}
	}
	return name
}
