// Package social runs the Google and GitHub authorization code flows on behalf
// of a command line user and yields the credential the backend's social login
// endpoints accept.
package social

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/oauth2"
)

var (
	ErrStateMismatch = errors.New("state parameter does not match")
	ErrNonceMismatch = errors.New("nonce does not match")
	ErrNoIDToken     = errors.New("no id_token in token response")
	ErrNotConfigured = errors.New("social login client is not configured")
)

// Attempt holds the per-login secrets that tie the callback to the request that started it.
type Attempt struct {
	State    string
	Nonce    string
	Verifier string // PKCE code verifier
}

func NewAttempt() Attempt {
	return Attempt{
		State:    generateRandomString(32),
		Nonce:    generateRandomString(32),
		Verifier: oauth2.GenerateVerifier(),
	}
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
