package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"regexp"
)

const LegacyKeyPrefix = "sa_"

var pinPattern = regexp.MustCompile(`^\d{6}$`)

// NewDeviceKey returns a 28 character URL-safe capability key.
func NewDeviceKey() (string, error) {
	buf := make([]byte, 21)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewPIN returns a uniformly random 6-digit PIN.
func NewPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}

func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}

// NewLegacyKey returns a key id and secret for the sa_<keyId>.<secret> format.
func NewLegacyKey() (string, string, error) {
	id := make([]byte, 4)
	if _, err := rand.Read(id); err != nil {
		return "", "", err
	}
	secret := make([]byte, 10)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}
	return "k_" + hex.EncodeToString(id), hex.EncodeToString(secret), nil
}

func FormatLegacyKey(keyID, secret string) string {
	return LegacyKeyPrefix + keyID + "." + secret
}
