package model

import (
	"errors"
	"time"
)

type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleSchoolAdmin Role = "SCHOOL_ADMIN"
)

type CardStatus string

const (
	CardUnassigned CardStatus = "UNASSIGNED"
	CardAssigned   CardStatus = "ASSIGNED"
	CardLost       CardStatus = "LOST"
	CardDisabled   CardStatus = "DISABLED"
)

func (s CardStatus) Valid() bool {
	switch s {
	case CardUnassigned, CardAssigned, CardLost, CardDisabled:
		return true
	default:
		return false
	}
}

type AttendanceStatus string

const AttendancePresent AttendanceStatus = "PRESENT"

var (
	ErrAdminMissingSchool     = errors.New("schoolId is required for SCHOOL_ADMIN")
	ErrAdminMissingCredential = errors.New("SCHOOL_ADMIN must have a PIN or an API key")
	ErrAdminInvalidRole       = errors.New("invalid admin role")
)

type School struct {
	ID        string
	Code      string
	Name      string
	Timezone  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Admin struct {
	ID         string
	Name       string
	Role       Role
	SchoolID   *string
	PinHash    *string
	APIKeyID   *string
	APIKeyHash *string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate enforces the write-time invariants of an admin record.
func (a Admin) Validate() error {
	switch a.Role {
	case RoleSuperAdmin:
		return nil
	case RoleSchoolAdmin:
	default:
		return ErrAdminInvalidRole
	}
	if a.SchoolID == nil || *a.SchoolID == "" {
		return ErrAdminMissingSchool
	}
	hasPin := a.PinHash != nil && *a.PinHash != ""
	hasKey := a.APIKeyID != nil && *a.APIKeyID != "" && a.APIKeyHash != nil && *a.APIKeyHash != ""
	if !hasPin && !hasKey {
		return ErrAdminMissingCredential
	}
	return nil
}

type Device struct {
	ID        string
	SchoolID  string
	Name      string
	Key       string
	Location  *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Student struct {
	ID               string
	SchoolID         string
	Name             string
	ClassName        string
	Section          string
	RollNumber       string
	House            string
	GuardianWhatsapp string
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Card struct {
	ID                string
	SchoolID          string
	UID               string
	Status            CardStatus
	AssignedStudentID *string
	Notes             *string
	IssuedAt          *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Attendance struct {
	ID              string
	SchoolID        string
	StudentID       string
	Date            string
	Status          AttendanceStatus
	MarkedAt        time.Time
	DeviceID        *string
	CardUID         *string
	PhotoURL        *string
	PhotoExternalID *string
	NotifiedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
