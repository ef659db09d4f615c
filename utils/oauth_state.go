package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const OAuthStateCookie = "oauth_state"

// GenerateState creates a random, URL-safe OAuth state value.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes for oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// StateMatches compares the state echoed by the provider with the cookie value.
func StateMatches(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
