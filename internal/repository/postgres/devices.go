package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const deviceColumns = `id, school_id, name, device_key, location, active, created_at, updated_at`

func scanDevice(row scanner) (model.Device, error) {
	var device model.Device
	err := row.Scan(&device.ID, &device.SchoolID, &device.Name, &device.Key, &device.Location, &device.Active, &device.CreatedAt, &device.UpdatedAt)
	return device, mapErr(err)
}

func (s *Store) listDevices(ctx context.Context, query string, args ...any) ([]model.Device, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []model.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, device)
	}
	return out, rows.Err()
}

func (s *Store) CreateDevice(ctx context.Context, device model.Device) (model.Device, error) {
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	return scanDevice(s.pool.QueryRow(ctx, `
		INSERT INTO devices (id, school_id, name, device_key, location, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+deviceColumns,
		device.ID, device.SchoolID, device.Name, device.Key, device.Location, device.Active))
}

func (s *Store) ListDevices(ctx context.Context, schoolID string) ([]model.Device, error) {
	return s.listDevices(ctx, `
		SELECT `+deviceColumns+` FROM devices
		WHERE school_id = $1
		ORDER BY created_at DESC`, schoolID)
}

func (s *Store) ListDevicesByIDs(ctx context.Context, schoolID string, ids []string) ([]model.Device, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.listDevices(ctx, `
		SELECT `+deviceColumns+` FROM devices
		WHERE school_id = $1 AND id = ANY($2::text[]::uuid[])`, schoolID, ids)
}

func (s *Store) GetActiveDeviceByKey(ctx context.Context, key string) (model.Device, error) {
	return scanDevice(s.pool.QueryRow(ctx, `
		SELECT `+deviceColumns+` FROM devices
		WHERE device_key = $1 AND active = true`, key))
}

func (s *Store) UpdateDevice(ctx context.Context, schoolID, id string, patch repository.DevicePatch) (model.Device, error) {
	return scanDevice(s.pool.QueryRow(ctx, `
		UPDATE devices
		SET name = COALESCE($3, name),
		    location = COALESCE($4, location),
		    active = COALESCE($5, active),
		    updated_at = now()
		WHERE id = $1 AND school_id = $2
		RETURNING `+deviceColumns,
		id, schoolID, patch.Name, patch.Location, patch.Active))
}

func (s *Store) RotateDeviceKey(ctx context.Context, schoolID, id, key string) (model.Device, error) {
	return scanDevice(s.pool.QueryRow(ctx, `
		UPDATE devices SET device_key = $3, updated_at = now()
		WHERE id = $1 AND school_id = $2
		RETURNING `+deviceColumns,
		id, schoolID, key))
}
