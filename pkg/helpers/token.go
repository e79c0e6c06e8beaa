package helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the entropy of verification and reset tokens.
const tokenBytes = 36

// GenerateToken returns a hex-encoded random token with 36 bytes of entropy.
// The plaintext is delivered out-of-band; only its bcrypt hash is persisted.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
