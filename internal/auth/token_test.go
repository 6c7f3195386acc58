package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Thomas-Okram/TapTell/internal/model"
)

const (
	secretK1 = "k1-secret-0123456789"
	secretK2 = "k2-secret-0123456789"
)

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := SignToken(secretK1, NewClaims("admin-1", model.RoleSchoolAdmin, "school-1", now, time.Hour))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	claims, err := VerifyToken(secretK1, token)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if claims.Subject != "admin-1" || claims.Role != model.RoleSchoolAdmin || claims.SchoolID != "school-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ExpiresAt.Unix()-claims.IssuedAt.Unix() != 3600 {
		t.Fatalf("expected one hour lifetime")
	}
}

func TestTokenWireFormat(t *testing.T) {
	token, err := SignToken(secretK1, NewClaims("admin-1", model.RoleSuperAdmin, "", time.Unix(1700000000, 0), time.Hour))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	if strings.ContainsAny(token, "=+/") {
		t.Fatalf("expected unpadded base64url, got %s", token)
	}
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("header decode: %v", err)
	}
	var h map[string]string
	if err := json.Unmarshal(header, &h); err != nil {
		t.Fatalf("header json: %v", err)
	}
	if h["alg"] != "HS256" || h["typ"] != "TPT" {
		t.Fatalf("unexpected header %v", h)
	}
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	var p map[string]interface{}
	if err := json.Unmarshal(payload, &p); err != nil {
		t.Fatalf("payload json: %v", err)
	}
	if p["sub"] != "admin-1" || p["role"] != "SUPER_ADMIN" || p["iat"] != float64(1700000000) || p["exp"] != float64(1700003600) {
		t.Fatalf("unexpected payload %v", p)
	}
	if _, ok := p["schoolId"]; ok {
		t.Fatalf("expected schoolId to be omitted")
	}
}

func TestTokenRejectedUnderOtherSecret(t *testing.T) {
	token, err := SignToken(secretK1, NewClaims("admin-1", model.RoleSuperAdmin, "", time.Now(), time.Hour))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := VerifyToken(secretK2, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := SignToken(secretK1, NewClaims("admin-1", model.RoleSuperAdmin, "", time.Now().Add(-2*time.Hour), time.Hour))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := VerifyToken(secretK1, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	for _, raw := range []string{"", "abc", "a.b", "a.b.c.d", "!!!.???.***"} {
		if _, err := VerifyToken(secretK1, raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected malformed for %q, got %v", raw, err)
		}
	}
}

func TestTokenWrongAlgorithm(t *testing.T) {
	claims := NewClaims("admin-1", model.RoleSuperAdmin, "", time.Now(), time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secretK1))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := VerifyToken(secretK1, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid for HS512, got %v", err)
	}
}

func TestShortSecretRejected(t *testing.T) {
	if _, err := SignToken("short", NewClaims("a", model.RoleSuperAdmin, "", time.Now(), time.Hour)); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected short secret error, got %v", err)
	}
}
