package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	// pkceVerifierBytes is the number of random bytes for the PKCE code verifier.
	// 56 bytes encode to 75 base64url characters, inside the 43-128 range
	// allowed by RFC 7636.
	pkceVerifierBytes = 56

	// stateBytes is the number of random bytes for the OAuth state parameter.
	stateBytes = 32

	// ChallengeMethodS256 is the only challenge method ems sends.
	ChallengeMethodS256 = "S256"
)

// GenerateVerifier returns a new PKCE code verifier read from r.
// A nil reader means crypto/rand.
func GenerateVerifier(r io.Reader) (string, error) {
	b, err := randomBytes(r, pkceVerifierBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes for PKCE: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateChallenge derives the S256 code challenge for a verifier:
// base64url(SHA256(verifier)) without padding.
func GenerateChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GeneratePKCE generates a new code verifier and its challenge.
func GeneratePKCE(r io.Reader) (*PKCEChallenge, error) {
	verifier, err := GenerateVerifier(r)
	if err != nil {
		return nil, err
	}

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       GenerateChallenge(verifier),
		CodeChallengeMethod: ChallengeMethodS256,
	}, nil
}

// GenerateState generates a random state parameter for OAuth.
// The state links the authorization response back to the request that
// started it and protects the callback against CSRF.
func GenerateState(r io.Reader) (string, error) {
	b, err := randomBytes(r, stateBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func randomBytes(r io.Reader, n int) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
