package strength

import (
	_ "embed"
	"strings"
)

// Compiled from public top password lists. Lowercase, one per line.
//
//go:embed common_passwords.txt
var commonPasswordsRaw string

var commonPasswords = parseCommonPasswords(commonPasswordsRaw)

func parseCommonPasswords(raw string) map[string]struct{} {
	lines := strings.Split(raw, "\n")
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		pw := strings.TrimSpace(line)
		if pw == "" {
			continue
		}
		set[strings.ToLower(pw)] = struct{}{}
	}
	return set
}

// isCommonPassword expects an already lowercased password.
func isCommonPassword(password string) bool {
	_, ok := commonPasswords[password]
	return ok
}
