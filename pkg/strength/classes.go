package strength

type Class string

const (
	Lower  Class = "lower"
	Upper  Class = "upper"
	Digit  Class = "digit"
	Symbol Class = "symbol"
	// Other is any non-ASCII character. No script specific analysis is done.
	Other Class = "other"
)

// classOrder fixes the order classes are reported in.
var classOrder = []Class{Lower, Upper, Digit, Symbol, Other}

// poolSize is the alphabet size assumed for each class. Symbol covers printable ASCII punctuation and
// space. Other is a rough guess for "some non-ASCII alphabet".
var poolSize = map[Class]int{
	Lower:  26,
	Upper:  26,
	Digit:  10,
	Symbol: 32,
	Other:  100,
}

func classOf(r rune) Class {
	switch {
	case r >= 'a' && r <= 'z':
		return Lower
	case r >= 'A' && r <= 'Z':
		return Upper
	case r >= '0' && r <= '9':
		return Digit
	case r < 0x80:
		return Symbol
	}
	return Other
}

// classify returns the classes present in runes, in classOrder.
func classify(runes []rune) []Class {
	seen := make(map[Class]bool, len(classOrder))
	for _, r := range runes {
		seen[classOf(r)] = true
	}

	classes := make([]Class, 0, len(seen))
	for _, c := range classOrder {
		if seen[c] {
			classes = append(classes, c)
		}
	}
	return classes
}

func charsetSize(classes []Class) int {
	size := 0
	for _, c := range classes {
		size += poolSize[c]
	}
	return size
}
