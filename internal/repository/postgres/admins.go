package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const adminColumns = `id, name, role, school_id, pin_hash, api_key_id, api_key_hash, active, created_at, updated_at`

func scanAdmin(row scanner) (model.Admin, error) {
	var admin model.Admin
	err := row.Scan(
		&admin.ID,
		&admin.Name,
		&admin.Role,
		&admin.SchoolID,
		&admin.PinHash,
		&admin.APIKeyID,
		&admin.APIKeyHash,
		&admin.Active,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	return admin, mapErr(err)
}

func (s *Store) listAdmins(ctx context.Context, query string, args ...any) ([]model.Admin, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []model.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, admin)
	}
	return out, rows.Err()
}

func (s *Store) CreateAdmin(ctx context.Context, admin model.Admin) (model.Admin, error) {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	return scanAdmin(s.pool.QueryRow(ctx, `
		INSERT INTO admins (id, name, role, school_id, pin_hash, api_key_id, api_key_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+adminColumns,
		admin.ID, admin.Name, admin.Role, admin.SchoolID, admin.PinHash, admin.APIKeyID, admin.APIKeyHash, admin.Active))
}

func (s *Store) ListSchoolAdmins(ctx context.Context, schoolID string) ([]model.Admin, error) {
	if schoolID == "" {
		return s.listAdmins(ctx, `
			SELECT `+adminColumns+` FROM admins
			WHERE role = $1
			ORDER BY created_at DESC`, model.RoleSchoolAdmin)
	}
	return s.listAdmins(ctx, `
		SELECT `+adminColumns+` FROM admins
		WHERE role = $1 AND school_id = $2
		ORDER BY created_at DESC`, model.RoleSchoolAdmin, schoolID)
}

func (s *Store) GetAdminByKeyID(ctx context.Context, keyID string) (model.Admin, error) {
	return scanAdmin(s.pool.QueryRow(ctx, `
		SELECT `+adminColumns+` FROM admins
		WHERE api_key_id = $1 AND active = true`, keyID))
}

func (s *Store) ListPinAdmins(ctx context.Context, schoolID string) ([]model.Admin, error) {
	return s.listAdmins(ctx, `
		SELECT `+adminColumns+` FROM admins
		WHERE role = $1 AND school_id = $2 AND active = true AND pin_hash IS NOT NULL
		ORDER BY created_at`, model.RoleSchoolAdmin, schoolID)
}

func (s *Store) SetAdminPin(ctx context.Context, id, pinHash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE admins SET pin_hash = $2, active = true, updated_at = now()
		WHERE id = $1 AND role = $3`, id, pinHash, model.RoleSchoolAdmin)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetAdminActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE admins SET active = $2, updated_at = now()
		WHERE id = $1 AND role = $3`, id, active, model.RoleSchoolAdmin)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
