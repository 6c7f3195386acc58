package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

var (
	ErrSchoolRequired   = errors.New("schoolId is required for SUPER_ADMIN")
	ErrInvalidSchoolID  = errors.New("invalid schoolId")
	ErrScopeNotResolved = errors.New("school not resolved")
	ErrSchoolNotFound   = errors.New("school not found")
)

type ScopeRequest struct {
	QuerySchoolID string
	BodySchoolID  string
	SchoolCode    string
	// AllowCode lets read-only dashboard routes pass schoolCode instead of an id.
	AllowCode bool
}

type SchoolLookup interface {
	GetSchool(ctx context.Context, id string) (model.School, error)
	GetSchoolByCode(ctx context.Context, code string) (model.School, error)
}

// ResolveScope returns the school a request may touch. School admins always
// get their bound school and request parameters are ignored.
func ResolveScope(ctx context.Context, principal Principal, req ScopeRequest, schools SchoolLookup) (string, error) {
	if !principal.Valid() {
		return "", ErrMisconfiguredAdmin
	}
	if principal.Role() == model.RoleSchoolAdmin {
		return principal.SchoolID(), nil
	}

	schoolID := strings.TrimSpace(req.QuerySchoolID)
	if schoolID == "" {
		schoolID = strings.TrimSpace(req.BodySchoolID)
	}
	if schoolID != "" {
		if _, err := uuid.Parse(schoolID); err != nil {
			return "", ErrInvalidSchoolID
		}
		if schools == nil {
			return "", ErrScopeNotResolved
		}
		school, err := schools.GetSchool(ctx, schoolID)
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSchoolNotFound
		}
		if err != nil {
			return "", err
		}
		return school.ID, nil
	}

	if !req.AllowCode {
		return "", ErrSchoolRequired
	}
	code := strings.ToUpper(strings.TrimSpace(req.SchoolCode))
	if code == "" || schools == nil {
		return "", ErrScopeNotResolved
	}
	school, err := schools.GetSchoolByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrSchoolNotFound
	}
	if err != nil {
		return "", err
	}
	return school.ID, nil
}
