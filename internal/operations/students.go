package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const (
	studentFieldsRequired = "name, className, sec, rollNumber, house, parentWhatsapp are required"
	studentExists         = "Student already exists (same className + sec + rollNumber)"
)

type StudentInput struct {
	Name             string
	ClassName        string
	Section          string
	RollNumber       string
	House            string
	GuardianWhatsapp string
}

// ListStudents returns active students only.
func (s *Service) ListStudents(ctx context.Context, schoolID string, filter repository.StudentFilter) ([]model.Student, error) {
	filter.ClassName = strings.TrimSpace(filter.ClassName)
	filter.Section = strings.TrimSpace(filter.Section)
	filter.RollNumber = strings.TrimSpace(filter.RollNumber)
	filter.Query = strings.TrimSpace(filter.Query)
	students, err := s.store.ListStudents(ctx, schoolID, filter)
	if err != nil {
		return nil, internalError(err)
	}
	return students, nil
}

func (s *Service) CreateStudent(ctx context.Context, schoolID string, in StudentInput) (model.Student, error) {
	student := model.Student{
		SchoolID:         schoolID,
		Name:             strings.TrimSpace(in.Name),
		ClassName:        strings.TrimSpace(in.ClassName),
		Section:          strings.TrimSpace(in.Section),
		RollNumber:       strings.TrimSpace(in.RollNumber),
		House:            strings.TrimSpace(in.House),
		GuardianWhatsapp: strings.TrimSpace(in.GuardianWhatsapp),
		Active:           true,
	}
	for _, field := range []string{student.Name, student.ClassName, student.Section, student.RollNumber, student.House, student.GuardianWhatsapp} {
		if field == "" {
			return model.Student{}, validationError(studentFieldsRequired)
		}
	}
	created, err := s.store.CreateStudent(ctx, student)
	if errors.Is(err, repository.ErrConflict) {
		return model.Student{}, conflictError(studentExists, err)
	}
	if err != nil {
		return model.Student{}, internalError(err)
	}
	return created, nil
}

// UpdateStudent applies a partial update. Setting Active=false releases the
// student's cards in the same transaction.
func (s *Service) UpdateStudent(ctx context.Context, schoolID, id string, patch repository.StudentPatch) (model.Student, error) {
	if !validID(id) {
		return model.Student{}, validationError("Invalid student id")
	}
	clean := repository.StudentPatch{
		Name:             trimmed(patch.Name),
		ClassName:        trimmed(patch.ClassName),
		Section:          trimmed(patch.Section),
		RollNumber:       trimmed(patch.RollNumber),
		House:            trimmed(patch.House),
		GuardianWhatsapp: trimmed(patch.GuardianWhatsapp),
		Active:           patch.Active,
	}
	for _, field := range []*string{clean.Name, clean.ClassName, clean.Section, clean.RollNumber, clean.House, clean.GuardianWhatsapp} {
		if field != nil && *field == "" {
			return model.Student{}, validationError(studentFieldsRequired)
		}
	}

	student, err := s.store.UpdateStudent(ctx, schoolID, id, clean)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Student{}, notFoundError("Student not found")
	case errors.Is(err, repository.ErrConflict):
		return model.Student{}, conflictError(studentExists, err)
	case err != nil:
		return model.Student{}, internalError(err)
	}
	return student, nil
}

// DeactivateStudent soft-deletes the student and unassigns its cards.
func (s *Service) DeactivateStudent(ctx context.Context, schoolID, id string) error {
	inactive := false
	_, err := s.UpdateStudent(ctx, schoolID, id, repository.StudentPatch{Active: &inactive})
	return err
}
