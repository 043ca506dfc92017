package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueValidate_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	tok, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok == "" || strings.Count(tok, ".") != 2 {
		t.Fatalf("expected a three-part JWT, got %q", tok)
	}

	got, err := svc.Validate(tok)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got != "alice" {
		t.Fatalf("expected subject 'alice', got %q", got)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	tok, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestValidate_TamperedSignature(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	tok, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(tok, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	tampered := strings.Join(parts, ".")

	if _, err := svc.Validate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute)

	// Issue in the past, validate "now".
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	tok, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := svc.Validate(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	// Still inside the window -> valid.
	svc.now = func() time.Time { return issued.Add(30 * time.Second) }
	if got, err := svc.Validate(tok); err != nil || got != "alice" {
		t.Fatalf("expected valid token inside TTL, got (%q, %v)", got, err)
	}
}

func TestValidate_Garbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	for _, bad := range []string{"", "not-a-token", "a.b.c", "eyJhbGciOiJub25lIn0..", strings.Repeat("x", 512)} {
		if _, err := svc.Validate(bad); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", bad, err)
		}
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService("s", 0)
	if svc.ttl != 24*time.Hour {
		t.Fatalf("expected 24h default TTL, got %v", svc.ttl)
	}
}
