package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken("test-secret", 42, "ADMIN", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse: %v (valid=%v)", err, tok.Valid)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"].(float64) != 42 {
		t.Errorf("sub = %v, want 42", claims["sub"])
	}
	if claims["role"] != "ADMIN" {
		t.Errorf("role = %v, want ADMIN", claims["role"])
	}
	if at.Exp.Before(time.Now().Add(14 * time.Minute)) {
		t.Errorf("expiry %v sooner than requested", at.Exp)
	}
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("right-secret", 1, "ADMIN", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	if err == nil && tok.Valid {
		t.Fatal("token validated with the wrong secret")
	}
}

func TestRefreshTokensAreUniqueAndHashed(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if a.Raw == b.Raw {
		t.Fatal("two refresh tokens with identical raw values")
	}
	if len(a.Raw) != 96 {
		t.Errorf("raw length = %d, want 96", len(a.Raw))
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Error("hash not deterministic")
	}
	if HashRefreshRaw(a.Raw) == HashRefreshRaw(b.Raw) {
		t.Error("distinct tokens hash identically")
	}
	if HashRefreshRaw(a.Raw) == a.Raw {
		t.Error("hash equals raw token")
	}
}
