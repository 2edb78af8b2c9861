package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewResetToken generates the random single-use token persisted on a user
// record during password recovery: 32 random bytes, hex-encoded.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
