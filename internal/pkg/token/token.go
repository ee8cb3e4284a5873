// Package token generates single-use credentials (refresh, email verification,
// password reset). The plaintext is returned to the caller exactly once; only
// the SHA-256 digest is ever persisted.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Generate returns a random hex token of 2*n characters.
func Generate(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Hash returns the SHA-256 hex digest of a plaintext token.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
