package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/crypto"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

// PinAdmin carries a plaintext PIN that is shown exactly once.
type PinAdmin struct {
	AdminID string
	PIN     string
}

// KeyAdmin carries a plaintext sa_ key that is shown exactly once.
type KeyAdmin struct {
	AdminID string
	Key     string
}

type AdminView struct {
	Admin  model.Admin
	School *model.School
}

func (s *Service) requireSchool(ctx context.Context, name, schoolID string) (string, error) {
	name = strings.TrimSpace(name)
	schoolID = strings.TrimSpace(schoolID)
	if name == "" || schoolID == "" {
		return "", validationError("name and schoolId are required")
	}
	if !validID(schoolID) {
		return "", validationError("Invalid schoolId")
	}
	if _, err := s.store.GetSchool(ctx, schoolID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", notFoundError("School not found")
		}
		return "", internalError(err)
	}
	return name, nil
}

// CreatePinAdmin creates a SCHOOL_ADMIN that logs in with a PIN. An empty
// pin generates a random one.
func (s *Service) CreatePinAdmin(ctx context.Context, name, schoolID, pin string) (PinAdmin, error) {
	name, err := s.requireSchool(ctx, name, schoolID)
	if err != nil {
		return PinAdmin{}, err
	}
	schoolID = strings.TrimSpace(schoolID)

	pin = strings.TrimSpace(pin)
	if pin == "" {
		if pin, err = crypto.NewPIN(); err != nil {
			return PinAdmin{}, internalError(err)
		}
	}
	if !crypto.ValidPIN(pin) {
		return PinAdmin{}, validationError("PIN must be exactly 6 digits")
	}
	pinHash, err := crypto.HashSecret(pin)
	if err != nil {
		return PinAdmin{}, internalError(err)
	}

	admin := model.Admin{
		Name:     name,
		Role:     model.RoleSchoolAdmin,
		SchoolID: &schoolID,
		PinHash:  &pinHash,
		Active:   true,
	}
	if err := admin.Validate(); err != nil {
		return PinAdmin{}, validationError(err.Error())
	}
	created, err := s.store.CreateAdmin(ctx, admin)
	if err != nil {
		return PinAdmin{}, internalError(err)
	}
	return PinAdmin{AdminID: created.ID, PIN: pin}, nil
}

// CreateKeyAdmin creates a SCHOOL_ADMIN with a legacy sa_ API key.
func (s *Service) CreateKeyAdmin(ctx context.Context, name, schoolID string) (KeyAdmin, error) {
	name, err := s.requireSchool(ctx, name, schoolID)
	if err != nil {
		return KeyAdmin{}, err
	}
	schoolID = strings.TrimSpace(schoolID)

	keyID, secret, err := crypto.NewLegacyKey()
	if err != nil {
		return KeyAdmin{}, internalError(err)
	}
	keyHash, err := crypto.HashSecret(secret)
	if err != nil {
		return KeyAdmin{}, internalError(err)
	}
	admin := model.Admin{
		Name:       name,
		Role:       model.RoleSchoolAdmin,
		SchoolID:   &schoolID,
		APIKeyID:   &keyID,
		APIKeyHash: &keyHash,
		Active:     true,
	}
	if err := admin.Validate(); err != nil {
		return KeyAdmin{}, validationError(err.Error())
	}
	created, err := s.store.CreateAdmin(ctx, admin)
	if err != nil {
		return KeyAdmin{}, internalError(err)
	}
	return KeyAdmin{AdminID: created.ID, Key: crypto.FormatLegacyKey(keyID, secret)}, nil
}

// ListSchoolAdmins lists SCHOOL_ADMIN records, optionally for one school,
// each joined with its school summary.
func (s *Service) ListSchoolAdmins(ctx context.Context, schoolID string) ([]AdminView, error) {
	schoolID = strings.TrimSpace(schoolID)
	if schoolID != "" && !validID(schoolID) {
		return nil, validationError("Invalid schoolId")
	}
	admins, err := s.store.ListSchoolAdmins(ctx, schoolID)
	if err != nil {
		return nil, internalError(err)
	}
	schools, err := s.store.ListSchools(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	byID := make(map[string]model.School, len(schools))
	for _, school := range schools {
		byID[school.ID] = school
	}

	out := make([]AdminView, 0, len(admins))
	for _, admin := range admins {
		view := AdminView{Admin: admin}
		if admin.SchoolID != nil {
			if school, ok := byID[*admin.SchoolID]; ok {
				view.School = &school
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// RotatePin issues a new PIN and reactivates the admin.
func (s *Service) RotatePin(ctx context.Context, adminID string) (PinAdmin, error) {
	if !validID(adminID) {
		return PinAdmin{}, validationError("Invalid admin id")
	}
	pin, err := crypto.NewPIN()
	if err != nil {
		return PinAdmin{}, internalError(err)
	}
	pinHash, err := crypto.HashSecret(pin)
	if err != nil {
		return PinAdmin{}, internalError(err)
	}
	if err := s.store.SetAdminPin(ctx, adminID, pinHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PinAdmin{}, notFoundError("Admin not found")
		}
		return PinAdmin{}, internalError(err)
	}
	return PinAdmin{AdminID: adminID, PIN: pin}, nil
}

func (s *Service) SetAdminActive(ctx context.Context, adminID string, active *bool) error {
	if !validID(adminID) {
		return validationError("Invalid admin id")
	}
	if active == nil {
		return validationError("isActive must be boolean")
	}
	if err := s.store.SetAdminActive(ctx, adminID, *active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("Admin not found")
		}
		return internalError(err)
	}
	return nil
}
