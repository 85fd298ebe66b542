// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// PrefixLen is the number of hex characters disclosed to the range endpoint.
	PrefixLen = 5
	// DigestLen is the hex length of a SHA1 digest.
	DigestLen = 40
)

// Digester computes the upper-case hex digest the range corpus is keyed by.
type Digester interface {
	Sum(password string) string
}

// SHA1 is the only digest the Pwned Passwords range corpus accepts. It is a weak hash and is used here
// only because the corpus format is fixed to it; lookups with any other digest will never match.
type SHA1 struct{}

func (SHA1) Sum(password string) string {
	h := sha1.New()
	h.Write([]byte(password))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// Digest is a hex digest split for a k-anonymity range query. Only Prefix is ever sent over the wire.
type Digest struct {
	Prefix string
	Suffix string
}

// String joins both halves back into the full digest.
func (d Digest) String() string {
	return d.Prefix + d.Suffix
}

// Split validates a hex digest and splits it into its prefix and suffix, upper-casing both.
func Split(digest string) (Digest, error) {
	if len(digest) != DigestLen {
		return Digest{}, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidDigest, DigestLen, len(digest))
	}

	if !isHex(digest) {
		return Digest{}, fmt.Errorf("%w: not a hexadecimal string", ErrInvalidDigest)
	}

	upper := strings.ToUpper(digest)
	return Digest{Prefix: upper[:PrefixLen], Suffix: upper[PrefixLen:]}, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}

	return true
}
