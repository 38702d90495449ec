package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewHS256Service_Validates(t *testing.T) {
	tests := []struct {
		name           string
		secret, issuer string
		ttl            time.Duration
	}{
		{"empty secret", "", "catalog", time.Hour},
		{"empty issuer", "s", "", time.Hour},
		{"zero ttl", "s", "catalog", 0},
	}
	for _, tt := range tests {
		if _, err := NewHS256Service(tt.secret, tt.issuer, tt.ttl); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestHS256_SignVerify(t *testing.T) {
	ts, err := NewHS256Service("secret", "catalog", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := ts.Sign("ops", RoleAdmin)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c, err := ts.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c.UserID != "ops" || c.Role != RoleAdmin {
		t.Fatalf("claims: got %+v", c)
	}
	if !(Identity{UserID: c.UserID, Role: c.Role}).IsAdmin() {
		t.Fatal("admin identity not recognised")
	}

	if _, err := ts.Sign("", RoleAdmin); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("empty subject: got %v", err)
	}
	if _, err := ts.Sign("ops", ""); !errors.Is(err, ErrEmptyRole) {
		t.Fatalf("empty role: got %v", err)
	}
}

func TestHS256_RejectsForeignTokens(t *testing.T) {
	ts, err := NewHS256Service("secret", "catalog", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	otherKey, _ := NewHS256Service("other", "catalog", time.Hour)
	expired, _ := NewHS256Service("secret", "catalog", time.Nanosecond)

	foreign, _ := otherKey.Sign("ops", RoleAdmin)
	old, _ := expired.Sign("ops", RoleAdmin)
	time.Sleep(time.Millisecond)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  "catalog",
		Subject: "ops",
	}).SignedString([]byte("secret"))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "catalog",
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"other key": foreign,
		"expired":   old,
		"no exp":    noExp,
		"alg none":  none,
	} {
		if _, err := ts.Verify(tok); err == nil {
			t.Errorf("%s: token accepted", name)
		}
	}
}
