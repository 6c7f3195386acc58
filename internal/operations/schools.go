package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type SchoolInput struct {
	Name     string
	Code     string
	Timezone string
}

func (s *Service) ListSchools(ctx context.Context) ([]model.School, error) {
	schools, err := s.store.ListSchools(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	return schools, nil
}

func (s *Service) GetSchool(ctx context.Context, id string) (model.School, error) {
	if !validID(id) {
		return model.School{}, notFoundError("School not found")
	}
	school, err := s.store.GetSchool(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.School{}, notFoundError("School not found")
	}
	if err != nil {
		return model.School{}, internalError(err)
	}
	return school, nil
}

func (s *Service) CreateSchool(ctx context.Context, in SchoolInput) (model.School, error) {
	name := strings.TrimSpace(in.Name)
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if name == "" || code == "" {
		return model.School{}, validationError("name and code are required")
	}
	timezone := strings.TrimSpace(in.Timezone)
	if timezone == "" {
		timezone = model.DefaultTimezone
	}
	if _, err := model.LoadZone(timezone); err != nil {
		return model.School{}, validationError("Invalid timezone")
	}

	school, err := s.store.CreateSchool(ctx, model.School{
		Name:     name,
		Code:     code,
		Timezone: timezone,
		Active:   true,
	})
	if errors.Is(err, repository.ErrConflict) {
		return model.School{}, conflictError("School code already exists", err)
	}
	if err != nil {
		return model.School{}, internalError(err)
	}
	return school, nil
}

// UpdateSchool ignores blank fields, matching the admin console which sends
// the whole form.
func (s *Service) UpdateSchool(ctx context.Context, id string, patch repository.SchoolPatch) (model.School, error) {
	if !validID(id) {
		return model.School{}, validationError("Invalid school id")
	}
	clean := repository.SchoolPatch{Active: patch.Active}
	if v := trimmed(patch.Name); v != nil && *v != "" {
		clean.Name = v
	}
	if v := trimmed(patch.Code); v != nil && *v != "" {
		upper := strings.ToUpper(*v)
		clean.Code = &upper
	}
	if v := trimmed(patch.Timezone); v != nil && *v != "" {
		if _, err := model.LoadZone(*v); err != nil {
			return model.School{}, validationError("Invalid timezone")
		}
		clean.Timezone = v
	}

	school, err := s.store.UpdateSchool(ctx, id, clean)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.School{}, notFoundError("School not found")
	case errors.Is(err, repository.ErrConflict):
		return model.School{}, conflictError("School code already exists", err)
	case err != nil:
		return model.School{}, internalError(err)
	}
	return school, nil
}

// DeleteSchool refuses to orphan tenant rows.
func (s *Service) DeleteSchool(ctx context.Context, id string) error {
	if !validID(id) {
		return validationError("Invalid school id")
	}
	err := s.store.DeleteSchool(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFoundError("School not found")
	case errors.Is(err, repository.ErrSchoolInUse):
		return conflictError("School still has admins, devices, students, cards or attendance", err)
	case err != nil:
		return internalError(err)
	}
	return nil
}
