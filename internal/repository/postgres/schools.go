package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const schoolColumns = `id, code, name, timezone, active, created_at, updated_at`

func scanSchool(row scanner) (model.School, error) {
	var school model.School
	err := row.Scan(&school.ID, &school.Code, &school.Name, &school.Timezone, &school.Active, &school.CreatedAt, &school.UpdatedAt)
	return school, mapErr(err)
}

func (s *Store) CreateSchool(ctx context.Context, school model.School) (model.School, error) {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	return scanSchool(s.pool.QueryRow(ctx, `
		INSERT INTO schools (id, code, name, timezone, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+schoolColumns,
		school.ID, school.Code, school.Name, school.Timezone, school.Active))
}

func (s *Store) ListSchools(ctx context.Context) ([]model.School, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+schoolColumns+` FROM schools ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.School
	for rows.Next() {
		school, err := scanSchool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, school)
	}
	return out, rows.Err()
}

func (s *Store) GetSchool(ctx context.Context, id string) (model.School, error) {
	return scanSchool(s.pool.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id))
}

func (s *Store) GetSchoolByCode(ctx context.Context, code string) (model.School, error) {
	return scanSchool(s.pool.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE code = $1`, code))
}

func (s *Store) UpdateSchool(ctx context.Context, id string, patch repository.SchoolPatch) (model.School, error) {
	return scanSchool(s.pool.QueryRow(ctx, `
		UPDATE schools
		SET name = COALESCE($2, name),
		    code = COALESCE($3, code),
		    timezone = COALESCE($4, timezone),
		    active = COALESCE($5, active),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+schoolColumns,
		id, patch.Name, patch.Code, patch.Timezone, patch.Active))
}

// DeleteSchool relies on ON DELETE RESTRICT foreign keys to refuse deleting
// a school that still owns rows.
func (s *Store) DeleteSchool(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return repository.ErrSchoolInUse
	}
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
