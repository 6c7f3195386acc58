package model

import (
	"errors"
	"testing"
	"time"
)

func TestLocalDateUsesSchoolZone(t *testing.T) {
	at := time.Date(2024, 1, 1, 18, 35, 0, 0, time.UTC)
	date, err := LocalDate(at, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("local date error: %v", err)
	}
	if date != "2024-01-02" {
		t.Fatalf("expected 2024-01-02, got %s", date)
	}

	date, err = LocalDate(at, "UTC")
	if err != nil {
		t.Fatalf("local date error: %v", err)
	}
	if date != "2024-01-01" {
		t.Fatalf("expected 2024-01-01 in UTC, got %s", date)
	}
}

func TestLocalDateSameDayAcrossServerMidnight(t *testing.T) {
	// 23:58 and 00:02 UTC fall on the same day in a zone five hours behind.
	before := time.Date(2024, 3, 10, 23, 58, 0, 0, time.UTC)
	after := time.Date(2024, 3, 11, 0, 2, 0, 0, time.UTC)
	d1, _ := LocalDate(before, "America/Bogota")
	d2, _ := LocalDate(after, "America/Bogota")
	if d1 != d2 {
		t.Fatalf("expected same local day, got %s and %s", d1, d2)
	}
}

func TestLocalDateDefaultsAndRejectsUnknownZone(t *testing.T) {
	at := time.Date(2024, 1, 1, 18, 35, 0, 0, time.UTC)
	date, err := LocalDate(at, "")
	if err != nil || date != "2024-01-02" {
		t.Fatalf("expected default zone date 2024-01-02, got %s (%v)", date, err)
	}
	if _, err := LocalDate(at, "Mars/Olympus"); err == nil {
		t.Fatalf("expected unknown zone to error")
	}
}

func TestAdminValidate(t *testing.T) {
	school := "11111111-1111-1111-1111-111111111111"
	pin := "$2a$10$hash"
	keyID := "k_abcd1234"

	if err := (Admin{Role: RoleSuperAdmin}).Validate(); err != nil {
		t.Fatalf("super admin should be valid: %v", err)
	}
	if err := (Admin{Role: RoleSchoolAdmin, PinHash: &pin}).Validate(); !errors.Is(err, ErrAdminMissingSchool) {
		t.Fatalf("expected missing school, got %v", err)
	}
	if err := (Admin{Role: RoleSchoolAdmin, SchoolID: &school}).Validate(); !errors.Is(err, ErrAdminMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if err := (Admin{Role: RoleSchoolAdmin, SchoolID: &school, APIKeyID: &keyID}).Validate(); !errors.Is(err, ErrAdminMissingCredential) {
		t.Fatalf("key id without hash should be rejected, got %v", err)
	}
	if err := (Admin{Role: RoleSchoolAdmin, SchoolID: &school, PinHash: &pin}).Validate(); err != nil {
		t.Fatalf("expected valid pin admin: %v", err)
	}
	if err := (Admin{Role: "OWNER"}).Validate(); !errors.Is(err, ErrAdminInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}

func TestCardStatusValid(t *testing.T) {
	for _, status := range []CardStatus{CardUnassigned, CardAssigned, CardLost, CardDisabled} {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if CardStatus("BROKEN").Valid() {
		t.Fatalf("expected BROKEN to be invalid")
	}
}
