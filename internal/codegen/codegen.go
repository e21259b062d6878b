// Package codegen produces short, human-typable invitation codes from
// a restricted alphabet. The generator is not responsible for
// uniqueness; that is enforced by the unique index on the invitations
// table, with the caller retrying generation on a duplicate.
package codegen

import (
	"crypto/rand"
	"errors"
	"io"
)

// DefaultAlphabet is the 32-symbol code alphabet. Visually ambiguous
// characters (I, O, 0, 1) are excluded so codes can be read over the
// phone or copied from paper without confusion.
const DefaultAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultLength is the length of generated invitation codes.
const DefaultLength = 8

// Generate returns a code of the given length drawn from alphabet
// using the cryptographically secure random source.
func Generate(length int, alphabet string) (string, error) {
	return FromReader(rand.Reader, length, alphabet)
}

// FromReader draws length bytes from r and maps each byte modulo the
// alphabet size to a character. It exists so tests can supply a
// deterministic source; production callers should use Generate.
func FromReader(r io.Reader, length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", errors.New("codegen: length must be positive")
	}
	if alphabet == "" {
		return "", errors.New("codegen: alphabet must not be empty")
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}
