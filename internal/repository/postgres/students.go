package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const studentColumns = `id, school_id, name, class_name, section, roll_number, house, guardian_whatsapp, active, created_at, updated_at`

func scanStudent(row scanner) (model.Student, error) {
	var student model.Student
	err := row.Scan(
		&student.ID,
		&student.SchoolID,
		&student.Name,
		&student.ClassName,
		&student.Section,
		&student.RollNumber,
		&student.House,
		&student.GuardianWhatsapp,
		&student.Active,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	return student, mapErr(err)
}

func (s *Store) listStudents(ctx context.Context, query string, args ...any) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []model.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, student)
	}
	return out, rows.Err()
}

func (s *Store) CreateStudent(ctx context.Context, student model.Student) (model.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	return scanStudent(s.pool.QueryRow(ctx, `
		INSERT INTO students (id, school_id, name, class_name, section, roll_number, house, guardian_whatsapp, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+studentColumns,
		student.ID, student.SchoolID, student.Name, student.ClassName, student.Section,
		student.RollNumber, student.House, student.GuardianWhatsapp, student.Active))
}

func (s *Store) ListStudents(ctx context.Context, schoolID string, filter repository.StudentFilter) ([]model.Student, error) {
	where := []string{"school_id = $1", "active = true"}
	args := []any{schoolID}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.ClassName != "" {
		add("class_name = $%d", filter.ClassName)
	}
	if filter.Section != "" {
		add("section = $%d", filter.Section)
	}
	if filter.RollNumber != "" {
		add("roll_number = $%d", filter.RollNumber)
	}
	if filter.Query != "" {
		add("(name ILIKE $%[1]d OR roll_number ILIKE $%[1]d OR guardian_whatsapp ILIKE $%[1]d)", likePattern(filter.Query))
	}
	return s.listStudents(ctx, `
		SELECT `+studentColumns+` FROM students
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC`, args...)
}

func (s *Store) ListStudentsByIDs(ctx context.Context, schoolID string, ids []string) ([]model.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.listStudents(ctx, `
		SELECT `+studentColumns+` FROM students
		WHERE school_id = $1 AND id = ANY($2::text[]::uuid[])`, schoolID, ids)
}

func (s *Store) GetStudent(ctx context.Context, schoolID, id string) (model.Student, error) {
	return scanStudent(s.pool.QueryRow(ctx, `
		SELECT `+studentColumns+` FROM students
		WHERE id = $1 AND school_id = $2`, id, schoolID))
}

func (s *Store) UpdateStudent(ctx context.Context, schoolID, id string, patch repository.StudentPatch) (model.Student, error) {
	var student model.Student
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		student, err = scanStudent(tx.QueryRow(ctx, `
			UPDATE students
			SET name = COALESCE($3, name),
			    class_name = COALESCE($4, class_name),
			    section = COALESCE($5, section),
			    roll_number = COALESCE($6, roll_number),
			    house = COALESCE($7, house),
			    guardian_whatsapp = COALESCE($8, guardian_whatsapp),
			    active = COALESCE($9, active),
			    updated_at = now()
			WHERE id = $1 AND school_id = $2
			RETURNING `+studentColumns,
			id, schoolID, patch.Name, patch.ClassName, patch.Section, patch.RollNumber,
			patch.House, patch.GuardianWhatsapp, patch.Active))
		if err != nil {
			return err
		}
		if patch.Active != nil && !*patch.Active {
			return releaseCards(ctx, tx, schoolID, id)
		}
		return nil
	})
	return student, err
}

func releaseCards(ctx context.Context, q querier, schoolID, studentID string) error {
	_, err := q.Exec(ctx, `
		UPDATE cards
		SET status = $3, assigned_student_id = NULL, updated_at = now()
		WHERE school_id = $1 AND assigned_student_id = $2`,
		schoolID, studentID, model.CardUnassigned)
	return mapErr(err)
}
