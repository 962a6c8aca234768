package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	service, err := NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	token, err := service.Issue("admin")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := service.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subject != "admin" {
		t.Fatalf("expected subject 'admin', got %q", claims.Subject)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	service, err := NewTokenService("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	issuedAt := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issuedAt }

	token, err := service.Issue("admin")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	service.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := service.Verify(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenService("secret-one", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	verifier, err := NewTokenService("secret-two", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}

	token, err := issuer.Issue("admin")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenService("   ", time.Hour); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func TestFromHeader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"bearer abc123", "abc123", true},
		{"Bearer   ", "", false},
		{"Basic abc123", "", false},
		{"abc123", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := FromHeader(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Errorf("FromHeader(%q) = (%q, %t), want (%q, %t)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
