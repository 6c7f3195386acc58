package crypto

import (
	"strings"
	"testing"
)

func TestNewDeviceKey(t *testing.T) {
	first, err := NewDeviceKey()
	if err != nil {
		t.Fatalf("device key error: %v", err)
	}
	if len(first) != 28 {
		t.Fatalf("expected 28 chars, got %d", len(first))
	}
	if strings.ContainsAny(first, "+/=") {
		t.Fatalf("expected url-safe key, got %s", first)
	}
	second, _ := NewDeviceKey()
	if first == second {
		t.Fatalf("expected distinct keys")
	}
}

func TestNewPIN(t *testing.T) {
	for i := 0; i < 50; i++ {
		pin, err := NewPIN()
		if err != nil {
			t.Fatalf("pin error: %v", err)
		}
		if !ValidPIN(pin) {
			t.Fatalf("expected 6 digit pin, got %s", pin)
		}
	}
	for _, bad := range []string{"", "12345", "1234567", "12a456", " 123456"} {
		if ValidPIN(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestLegacyKeyFormat(t *testing.T) {
	keyID, secret, err := NewLegacyKey()
	if err != nil {
		t.Fatalf("legacy key error: %v", err)
	}
	if !strings.HasPrefix(keyID, "k_") || len(keyID) != 10 {
		t.Fatalf("unexpected key id %s", keyID)
	}
	if len(secret) != 20 {
		t.Fatalf("unexpected secret length %d", len(secret))
	}
	if got := FormatLegacyKey(keyID, secret); got != "sa_"+keyID+"."+secret {
		t.Fatalf("unexpected formatted key %s", got)
	}
}
