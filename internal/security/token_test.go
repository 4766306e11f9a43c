package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func mintToken(t *testing.T, secret, issuer, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.StandardClaims{
		Issuer:    issuer,
		Subject:   subject,
		ExpiresAt: exp.Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestVerifyAccessToken(t *testing.T) {
	v := NewTokenVerifier("secret", "auth-service")
	tok := mintToken(t, "secret", "auth-service", "alice@example.com", time.Now().Add(time.Hour))

	email, err := v.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("subject: got %q", email)
	}
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	v := NewTokenVerifier("secret", "auth-service")

	tests := []struct {
		name  string
		token string
		want  error // nil means any error is fine
	}{
		{
			name:  "wrong secret",
			token: mintToken(t, "other", "auth-service", "alice@example.com", time.Now().Add(time.Hour)),
		},
		{
			name:  "expired",
			token: mintToken(t, "secret", "auth-service", "alice@example.com", time.Now().Add(-time.Hour)),
		},
		{
			name:  "wrong issuer",
			token: mintToken(t, "secret", "someone-else", "alice@example.com", time.Now().Add(time.Hour)),
			want:  ErrInvalidIssuer,
		},
		{
			name:  "no subject",
			token: mintToken(t, "secret", "auth-service", "", time.Now().Add(time.Hour)),
			want:  ErrInvalidSubject,
		},
		{
			name:  "garbage",
			token: "not.a.token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyAccessToken(tt.token)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifyAccessTokenIssuerOptional(t *testing.T) {
	v := NewTokenVerifier("secret", "")
	tok := mintToken(t, "secret", "whoever", "bob@example.com", time.Now().Add(time.Hour))

	email, err := v.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if email != "bob@example.com" {
		t.Errorf("subject: got %q", email)
	}
}
