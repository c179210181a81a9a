package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerifyJWT(t *testing.T) {
	m, err := NewJWTManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, issued, err := m.GenerateJWT(42, "alice@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if issued.ID == "" {
		t.Fatalf("expected token id to be set")
	}

	claims, err := m.VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "alice@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Fatalf("expected jti %q, got %q", issued.ID, claims.ID)
	}
}

func TestVerifyJWTRejectsExpired(t *testing.T) {
	m, err := NewJWTManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.GenerateJWT(1, "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	m.now = time.Now
	if _, err := m.VerifyJWT(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyJWTRejectsOtherSecret(t *testing.T) {
	issuer, _ := NewJWTManager("one", time.Hour)
	verifier, _ := NewJWTManager("two", time.Hour)

	token, _, err := issuer.GenerateJWT(1, "a@x.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.VerifyJWT(token); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
	if _, err := verifier.VerifyJWT("not-a-token"); err == nil {
		t.Fatalf("expected garbage to fail")
	}
}

func TestNewJWTManagerValidates(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Fatalf("expected empty secret to fail")
	}
	if _, err := NewJWTManager("s", 0); err == nil {
		t.Fatalf("expected zero ttl to fail")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Fatalf("expected mismatch")
	}
}
