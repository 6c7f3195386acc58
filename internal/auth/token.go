package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Thomas-Okram/TapTell/internal/model"
)

const (
	TokenPrefix    = "tpt_"
	tokenType      = "TPT"
	minSecretBytes = 16
)

var (
	ErrSecretTooShort = errors.New("token secret must be at least 16 bytes")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// Claims is the TPT payload: {sub, role, schoolId?, iat, exp}.
type Claims struct {
	Role     model.Role `json:"role"`
	SchoolID string     `json:"schoolId,omitempty"`
	jwt.RegisteredClaims
}

func NewClaims(adminID string, role model.Role, schoolID string, now time.Time, ttl time.Duration) Claims {
	now = now.UTC().Truncate(time.Second)
	return Claims{
		Role:     role,
		SchoolID: schoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// SignToken returns the bare token without the tpt_ prefix.
func SignToken(secret string, claims Claims) (string, error) {
	if len(secret) < minSecretBytes {
		return "", ErrSecretTooShort
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["typ"] = tokenType
	return token.SignedString([]byte(secret))
}

func VerifyToken(secret, tokenString string) (*Claims, error) {
	if len(secret) < minSecretBytes {
		return nil, ErrSecretTooShort
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, classifyTokenError(err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
