package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

func RandomToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// HashToken is used to store refresh tokens without keeping the plain value.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
