package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestParse_ValidHS256(t *testing.T) {
	secret := []byte("test-secret")
	token, err := Issue(secret, Claims{HostID: "h1", Roles: []string{"host"}}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := Parse(secret, token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.HostID != "h1" {
		t.Fatalf("expected host id h1, got %q", claims.HostID)
	}
	if claims.Subject != "h1" {
		t.Fatalf("expected subject h1, got %q", claims.Subject)
	}
}

func signed(t *testing.T, method jwt.SigningMethod, secret []byte, claims Claims) string {
	t.Helper()
	tokenStr, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return tokenStr
}

func TestParse_RejectsUnexpectedAlgorithm(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()
	tokenStr := signed(t, jwt.SigningMethodHS384, secret, Claims{
		HostID: "h1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   "h1",
		},
	})

	if _, err := Parse(secret, tokenStr); err == nil {
		t.Fatalf("expected parse to reject non-HS256 token")
	}
}

func TestParse_FallsBackToSubject(t *testing.T) {
	secret := []byte("test-secret")
	tokenStr := signed(t, jwt.SigningMethodHS256, secret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   "h2",
		},
	})

	claims, err := Parse(secret, tokenStr)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.HostID != "h2" {
		t.Fatalf("expected host id from subject, got %q", claims.HostID)
	}
}

func TestParse_RejectsInvalidTokens(t *testing.T) {
	secret := []byte("test-secret")
	expired := signed(t, jwt.SigningMethodHS256, secret, Claims{
		HostID:           "h1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	noExpiry := signed(t, jwt.SigningMethodHS256, secret, Claims{HostID: "h1"})
	noHost := signed(t, jwt.SigningMethodHS256, secret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	good, err := Issue(secret, Claims{HostID: "h1"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"expired", secret, expired},
		{"no expiry", secret, noExpiry},
		{"no host", secret, noHost},
		{"wrong secret", []byte("other"), good},
		{"garbage", secret, "not-a-token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.secret, tc.token); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
