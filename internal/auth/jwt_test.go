package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestValidateTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()

	token, err := GenerateToken(cfg, 42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Subject != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	cfg := testJWTConfig()

	expiredCfg := *cfg
	expiredCfg.TTL = -time.Minute
	expired, err := GenerateToken(&expiredCfg, 1, "alice")
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}

	otherSecret := *cfg
	otherSecret.Secret = []byte("another-secret")
	forged, err := GenerateToken(&otherSecret, 1, "alice")
	if err != nil {
		t.Fatalf("generate forged: %v", err)
	}

	otherIssuer := *cfg
	otherIssuer.Issuer = "someone-else"
	wrongIssuer, err := GenerateToken(&otherIssuer, 1, "alice")
	if err != nil {
		t.Fatalf("generate wrong issuer: %v", err)
	}

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": cfg.Issuer,
		"aud": cfg.Audience,
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	missingUser, err := noUser.SignedString(cfg.Secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong secret": forged,
		"wrong issuer": wrongIssuer,
		"missing user": missingUser,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ValidateToken(cfg, token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
