package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

// CardView is a card with its assigned student, if any.
type CardView struct {
	Card    model.Card
	Student *model.Student
}

func (s *Service) ListCards(ctx context.Context, schoolID string, filter repository.CardFilter) ([]CardView, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("Invalid card status")
	}
	cards, err := s.store.ListCards(ctx, schoolID, filter)
	if err != nil {
		return nil, internalError(err)
	}

	var studentIDs []string
	for _, card := range cards {
		if card.AssignedStudentID != nil {
			studentIDs = append(studentIDs, *card.AssignedStudentID)
		}
	}
	byID := map[string]model.Student{}
	if len(studentIDs) > 0 {
		students, err := s.store.ListStudentsByIDs(ctx, schoolID, studentIDs)
		if err != nil {
			return nil, internalError(err)
		}
		for _, student := range students {
			byID[student.ID] = student
		}
	}

	out := make([]CardView, 0, len(cards))
	for _, card := range cards {
		view := CardView{Card: card}
		if card.AssignedStudentID != nil {
			if student, ok := byID[*card.AssignedStudentID]; ok {
				view.Student = &student
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Service) CreateCard(ctx context.Context, schoolID, uid string, notes *string) (model.Card, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return model.Card{}, validationError("uid is required")
	}
	notes = trimmed(notes)
	if notes != nil && *notes == "" {
		notes = nil
	}
	card, err := s.store.CreateCard(ctx, model.Card{
		SchoolID: schoolID,
		UID:      uid,
		Status:   model.CardUnassigned,
		Notes:    notes,
	})
	if errors.Is(err, repository.ErrConflict) {
		return model.Card{}, conflictError("Card UID already exists for this school", err)
	}
	if err != nil {
		return model.Card{}, internalError(err)
	}
	return card, nil
}

// UpdateCard edits status and notes. UNASSIGNED, ASSIGNED and LOST move
// freely; DISABLED goes through DisableCard and is terminal.
func (s *Service) UpdateCard(ctx context.Context, schoolID, id string, patch repository.CardPatch) (model.Card, error) {
	if !validID(id) {
		return model.Card{}, validationError("Invalid card id")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return model.Card{}, validationError("Invalid card status")
	}
	current, err := s.store.GetCard(ctx, schoolID, id)
	if err != nil {
		return cardResult(model.Card{}, err)
	}
	if patch.Status != nil && current.Status == model.CardDisabled && *patch.Status != model.CardDisabled {
		return model.Card{}, validationError("Card is disabled")
	}

	patch.Notes = trimmed(patch.Notes)
	if patch.Status != nil && *patch.Status == model.CardDisabled {
		patch.Status = nil
		if _, err := s.store.DisableCard(ctx, schoolID, id); err != nil {
			return cardResult(model.Card{}, err)
		}
		if patch.Notes == nil {
			return cardResult(s.store.GetCard(ctx, schoolID, id))
		}
	}
	return cardResult(s.store.UpdateCard(ctx, schoolID, id, patch))
}

// AssignCard points the card at the student. Any other card held by the
// student is released in the same transaction.
func (s *Service) AssignCard(ctx context.Context, schoolID, cardID, studentID string) (model.Card, error) {
	if !validID(cardID) {
		return model.Card{}, validationError("Invalid card id")
	}
	studentID = strings.TrimSpace(studentID)
	if !validID(studentID) {
		return model.Card{}, validationError("Invalid studentId")
	}
	current, err := s.store.GetCard(ctx, schoolID, cardID)
	if err != nil {
		return cardResult(model.Card{}, err)
	}
	if current.Status == model.CardDisabled {
		return model.Card{}, validationError("Card is disabled")
	}
	card, err := s.store.AssignCard(ctx, schoolID, cardID, studentID)
	if errors.Is(err, repository.ErrStudentUnavailable) {
		return model.Card{}, &Error{Kind: KindStudentInactive, Message: "Student not found / inactive"}
	}
	return cardResult(card, err)
}

func (s *Service) UnassignCard(ctx context.Context, schoolID, cardID string) (model.Card, error) {
	if !validID(cardID) {
		return model.Card{}, validationError("Invalid card id")
	}
	return cardResult(s.store.UnassignCard(ctx, schoolID, cardID))
}

// DisableCard retires the card and clears its assignment.
func (s *Service) DisableCard(ctx context.Context, schoolID, cardID string) (model.Card, error) {
	if !validID(cardID) {
		return model.Card{}, validationError("Invalid card id")
	}
	return cardResult(s.store.DisableCard(ctx, schoolID, cardID))
}

func cardResult(card model.Card, err error) (model.Card, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return model.Card{}, notFoundError("Card not found")
	}
	if err != nil {
		return model.Card{}, internalError(err)
	}
	return card, nil
}
