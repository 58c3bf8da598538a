// Package auth issues and checks bearer session tokens. Tokens are
// random, shown once at session creation, and stored server-side only as
// sha256 hashes.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const sessionTokenPrefix = "fp_sess_"

func GenerateSessionToken() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return sessionTokenPrefix + hex.EncodeToString(raw), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func VerifyToken(rawToken, expectedHash string) bool {
	actual := HashToken(rawToken)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expectedHash)) == 1
}

// BearerToken extracts the token from an Authorization header, or ""
// when the header is absent or malformed.
func BearerToken(authHeader string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	if token == "" {
		return ""
	}
	return token
}
