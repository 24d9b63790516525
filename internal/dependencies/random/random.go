// Package random issues the opaque identifiers used for runs, session
// tokens and leaderboard records.
package random

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IDAlphabet is lowercase alphanumeric so ids survive URLs, cookies and
// redis keys unescaped
const IDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Random generates identifiers and can be mocked for testing
type Random interface {
	// ID returns a random identifier of the given length drawn from IDAlphabet
	ID(length int) string
}

// NanoID implements Random using go-nanoid, which reads crypto/rand
type NanoID struct{}

// New creates a new NanoID generator
func New() *NanoID {
	return &NanoID{}
}

// ID returns a random identifier, or "" for a non-positive length. A
// failing entropy source is unrecoverable, so it panics rather than
// hand out a guessable token.
func (r *NanoID) ID(length int) string {
	if length <= 0 {
		return ""
	}
	return gonanoid.MustGenerate(IDAlphabet, length)
}
