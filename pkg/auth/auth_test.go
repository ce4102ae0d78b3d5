package auth

import (
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckSecret(t *testing.T) {
	hash, err := HashSecret("my-secret")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if hash == "my-secret" {
		t.Error("hash equals plaintext")
	}
	if !CheckSecret(hash, "my-secret") {
		t.Error("correct secret rejected")
	}
	if CheckSecret(hash, "wrong") {
		t.Error("wrong secret accepted")
	}
}

func TestGenerateAndParseJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateJWT("client-42")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("token has %d parts", len(parts))
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Subject != "client-42" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Error("token already expired")
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	token, err := GenerateJWT("c")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-two")
	if _, err := ParseJWT(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestJWTMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := GenerateJWT("c"); err == nil {
		t.Error("GenerateJWT succeeded without JWT_SECRET")
	}
	if _, err := ParseJWT("x.y.z"); err == nil {
		t.Error("ParseJWT succeeded without JWT_SECRET")
	}
}

func TestParseJWTExpiry(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 24 * time.Hour},
		{"48", 48 * time.Hour},
		{"-1", 24 * time.Hour},
		{"abc", 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := parseJWTExpiry(tt.in); got != tt.want {
			t.Errorf("parseJWTExpiry(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
