package auth

import (
	"testing"
	"time"

	"opsconsole/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// mintToken plays the role of the external identity provider in tests.
func mintToken(t *testing.T, secret, issuer, audience, userID, role string, now time.Time, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Role:   role,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestVerifyAcceptsExternallyIssuedToken(t *testing.T) {
	v, err := NewVerifier(config.AuthConfig{JWTSecret: "secret", JWTIssuer: "idp", JWTAudience: "opsconsole"})
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok := mintToken(t, "secret", "idp", "opsconsole", "user-1", "finance_ops", now, 15*time.Minute)

	claims, err := v.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "finance_ops" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v, _ := NewVerifier(config.AuthConfig{JWTSecret: "secret"})
	now := time.Unix(1700000000, 0).UTC()
	tok := mintToken(t, "secret", "", "", "u", "r", now, time.Minute)

	if _, err := v.Verify(tok, now.Add(10*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsWrongSecretAndMissingRole(t *testing.T) {
	v, _ := NewVerifier(config.AuthConfig{JWTSecret: "secret"})
	now := time.Unix(1700000000, 0).UTC()

	if _, err := v.Verify(mintToken(t, "other", "", "", "u", "r", now, time.Minute), now); err == nil {
		t.Fatalf("expected signature error")
	}
	if _, err := v.Verify(mintToken(t, "secret", "", "", "u", "", now, time.Minute), now); err == nil {
		t.Fatalf("expected missing-role error")
	}
}
