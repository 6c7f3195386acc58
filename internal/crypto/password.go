package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const hashCost = 10

var ErrEmptySecret = errors.New("empty secret")

// HashSecret bcrypt-hashes a PIN or legacy key secret.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckSecret(hash, secret string) error {
	if hash == "" || secret == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}
