package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const cardColumns = `id, school_id, uid, status, assigned_student_id, notes, issued_at, created_at, updated_at`

func scanCard(row scanner) (model.Card, error) {
	var card model.Card
	err := row.Scan(
		&card.ID,
		&card.SchoolID,
		&card.UID,
		&card.Status,
		&card.AssignedStudentID,
		&card.Notes,
		&card.IssuedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	return card, mapErr(err)
}

func (s *Store) CreateCard(ctx context.Context, card model.Card) (model.Card, error) {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	return scanCard(s.pool.QueryRow(ctx, `
		INSERT INTO cards (id, school_id, uid, status, assigned_student_id, notes, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+cardColumns,
		card.ID, card.SchoolID, card.UID, card.Status, card.AssignedStudentID, card.Notes, card.IssuedAt))
}

func (s *Store) ListCards(ctx context.Context, schoolID string, filter repository.CardFilter) ([]model.Card, error) {
	where := []string{"school_id = $1"}
	args := []any{schoolID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, likePattern(filter.Query))
		where = append(where, fmt.Sprintf("(uid ILIKE $%[1]d OR notes ILIKE $%[1]d)", len(args)))
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

func (s *Store) GetCard(ctx context.Context, schoolID, id string) (model.Card, error) {
	return scanCard(s.pool.QueryRow(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE school_id = $1 AND id = $2`, schoolID, id))
}

func (s *Store) GetCardByUID(ctx context.Context, schoolID, uid string) (model.Card, error) {
	return scanCard(s.pool.QueryRow(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE school_id = $1 AND uid = $2`, schoolID, uid))
}

func (s *Store) UpdateCard(ctx context.Context, schoolID, id string, patch repository.CardPatch) (model.Card, error) {
	return scanCard(s.pool.QueryRow(ctx, `
		UPDATE cards
		SET status = COALESCE($3, status),
		    notes = COALESCE($4, notes),
		    updated_at = now()
		WHERE id = $1 AND school_id = $2
		RETURNING `+cardColumns,
		id, schoolID, patch.Status, patch.Notes))
}

// AssignCard locks the student row and then the target card so concurrent
// assignments for the same student serialise. Rows are always locked
// student before card, the same order UpdateStudent uses when it
// deactivates a student and releases its cards.
func (s *Store) AssignCard(ctx context.Context, schoolID, cardID, studentID string) (model.Card, error) {
	var card model.Card
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		var active bool
		err := tx.QueryRow(ctx, `SELECT active FROM students WHERE id = $1 AND school_id = $2 FOR UPDATE`, studentID, schoolID).Scan(&active)
		if err != nil {
			if errors.Is(mapErr(err), repository.ErrNotFound) {
				return repository.ErrStudentUnavailable
			}
			return err
		}
		if !active {
			return repository.ErrStudentUnavailable
		}
		var lockedID string
		err = tx.QueryRow(ctx, `SELECT id FROM cards WHERE id = $1 AND school_id = $2 FOR UPDATE`, cardID, schoolID).Scan(&lockedID)
		if err != nil {
			return mapErr(err)
		}
		if err := releaseCards(ctx, tx, schoolID, studentID); err != nil {
			return err
		}
		card, err = scanCard(tx.QueryRow(ctx, `
			UPDATE cards
			SET status = $3, assigned_student_id = $4, updated_at = now()
			WHERE id = $1 AND school_id = $2
			RETURNING `+cardColumns,
			cardID, schoolID, model.CardAssigned, studentID))
		return err
	})
	return card, err
}

func (s *Store) UnassignCard(ctx context.Context, schoolID, cardID string) (model.Card, error) {
	return s.resetCard(ctx, schoolID, cardID, model.CardUnassigned)
}

func (s *Store) DisableCard(ctx context.Context, schoolID, cardID string) (model.Card, error) {
	return s.resetCard(ctx, schoolID, cardID, model.CardDisabled)
}

func (s *Store) resetCard(ctx context.Context, schoolID, cardID string, status model.CardStatus) (model.Card, error) {
	return scanCard(s.pool.QueryRow(ctx, `
		UPDATE cards
		SET status = $3, assigned_student_id = NULL, updated_at = now()
		WHERE id = $1 AND school_id = $2
		RETURNING `+cardColumns,
		cardID, schoolID, status))
}
