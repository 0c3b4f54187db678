package oauth

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"regexp"
	"testing"

	"golang.org/x/oauth2"
)

var base64URLNoPad = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateVerifier(t *testing.T) {
	verifier, err := GenerateVerifier(nil)
	if err != nil {
		t.Fatalf("GenerateVerifier() error = %v", err)
	}

	// 56 bytes -> 75 characters without padding
	if len(verifier) != 75 {
		t.Errorf("verifier length = %d, want 75", len(verifier))
	}
	if len(verifier) < 43 || len(verifier) > 128 {
		t.Errorf("verifier length %d outside RFC 7636 bounds", len(verifier))
	}
	if !base64URLNoPad.MatchString(verifier) {
		t.Errorf("verifier %q is not unpadded base64url", verifier)
	}
}

func TestGenerateVerifier_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v, err := GenerateVerifier(nil)
		if err != nil {
			t.Fatalf("GenerateVerifier() error = %v", err)
		}
		if seen[v] {
			t.Fatal("Generated duplicate verifier")
		}
		seen[v] = true
	}
}

func TestGenerateVerifier_InjectedReader(t *testing.T) {
	seed := bytes.Repeat([]byte{0x01}, pkceVerifierBytes)

	v1, err := GenerateVerifier(bytes.NewReader(seed))
	if err != nil {
		t.Fatalf("GenerateVerifier() error = %v", err)
	}
	v2, err := GenerateVerifier(bytes.NewReader(seed))
	if err != nil {
		t.Fatalf("GenerateVerifier() error = %v", err)
	}

	if v1 != v2 {
		t.Errorf("same random source produced %q and %q", v1, v2)
	}
	if want := base64.RawURLEncoding.EncodeToString(seed); v1 != want {
		t.Errorf("verifier = %q, want %q", v1, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateVerifier_ReaderError(t *testing.T) {
	if _, err := GenerateVerifier(failingReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}
	if _, err := GenerateVerifier(bytes.NewReader([]byte{1, 2, 3})); err == nil {
		t.Fatal("expected error from short reader")
	}
	if _, err := GenerateState(failingReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}
}

func TestGenerateChallenge_RFC7636Vector(t *testing.T) {
	// RFC 7636 Appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if got := GenerateChallenge(verifier); got != want {
		t.Errorf("GenerateChallenge() = %q, want %q", got, want)
	}
}

func TestGenerateChallenge_Deterministic(t *testing.T) {
	a := GenerateChallenge("verifier-one")
	if a != GenerateChallenge("verifier-one") {
		t.Error("challenge is not deterministic")
	}
	if a == GenerateChallenge("verifier-two") {
		t.Error("different verifiers produced the same challenge")
	}
}

func TestGeneratePKCE(t *testing.T) {
	pkce, err := GeneratePKCE(nil)
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}

	if pkce.CodeChallengeMethod != "S256" {
		t.Errorf("CodeChallengeMethod = %q, want %q", pkce.CodeChallengeMethod, "S256")
	}

	hash := sha256.Sum256([]byte(pkce.CodeVerifier))
	expectedChallenge := base64.RawURLEncoding.EncodeToString(hash[:])
	if pkce.CodeChallenge != expectedChallenge {
		t.Errorf("CodeChallenge = %q, want %q", pkce.CodeChallenge, expectedChallenge)
	}

	// Verify our implementation matches x/oauth2
	libChallenge := oauth2.S256ChallengeFromVerifier(pkce.CodeVerifier)
	if pkce.CodeChallenge != libChallenge {
		t.Errorf("CodeChallenge = %q, want oauth2 result %q", pkce.CodeChallenge, libChallenge)
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState(nil)
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}

	// 32 bytes = 43 base64url chars
	if len(state) != 43 {
		t.Errorf("state length = %d, want 43", len(state))
	}

	other, err := GenerateState(nil)
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	if state == other {
		t.Error("Generated duplicate state")
	}
}
