package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const secretBytes = 32

// GenerateSecret returns 32 random bytes hex-encoded to 64 characters,
// suitable as a webhook shared secret or token signing key.
func GenerateSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
