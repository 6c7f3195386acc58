package crypto

import "testing"

func TestSecretHashing(t *testing.T) {
	hash, err := HashSecret("123456")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckSecret(hash, "123456"); err != nil {
		t.Fatalf("expected secret to match")
	}
	if err := CheckSecret(hash, "654321"); err == nil {
		t.Fatalf("expected secret mismatch")
	}
	if err := CheckSecret("", "123456"); err == nil {
		t.Fatalf("expected empty hash to fail")
	}
	if _, err := HashSecret(""); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
}
