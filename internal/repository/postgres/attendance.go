package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

const attendanceColumns = `id, school_id, student_id, day, status, marked_at, device_id, card_uid,
	photo_url, photo_external_id, notified_at, created_at, updated_at`

func scanAttendance(row scanner) (model.Attendance, error) {
	var a model.Attendance
	err := row.Scan(
		&a.ID,
		&a.SchoolID,
		&a.StudentID,
		&a.Date,
		&a.Status,
		&a.MarkedAt,
		&a.DeviceID,
		&a.CardUID,
		&a.PhotoURL,
		&a.PhotoExternalID,
		&a.NotifiedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, mapErr(err)
}

func (s *Store) InsertAttendance(ctx context.Context, row model.Attendance) (model.Attendance, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	return scanAttendance(s.pool.QueryRow(ctx, `
		INSERT INTO attendance (id, school_id, student_id, day, status, marked_at, device_id, card_uid, photo_url, photo_external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+attendanceColumns,
		row.ID, row.SchoolID, row.StudentID, row.Date, row.Status, row.MarkedAt,
		row.DeviceID, row.CardUID, row.PhotoURL, row.PhotoExternalID))
}

func (s *Store) GetAttendanceForDay(ctx context.Context, schoolID, studentID, date string) (model.Attendance, error) {
	return scanAttendance(s.pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+` FROM attendance
		WHERE school_id = $1 AND student_id = $2 AND day = $3`, schoolID, studentID, date))
}

func (s *Store) SetAttendancePhoto(ctx context.Context, id, url string, externalID *string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE attendance
		SET photo_url = $2, photo_external_id = COALESCE($3, photo_external_id), updated_at = now()
		WHERE id = $1`, id, url, externalID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) MarkAttendanceNotified(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE attendance SET notified_at = $2, updated_at = now()
		WHERE id = $1`, id, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) ListAttendance(ctx context.Context, schoolID string, filter repository.AttendanceFilter) ([]model.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE school_id = $1`
	args := []any{schoolID}
	if filter.From != "" && filter.To != "" {
		query += ` AND day BETWEEN $2 AND $3`
		args = append(args, filter.From, filter.To)
	} else {
		query += ` AND day = $2`
		args = append(args, filter.Date)
	}
	if filter.RestrictStudents {
		if len(filter.StudentIDs) == 0 {
			return nil, nil
		}
		args = append(args, filter.StudentIDs)
		query += ` AND student_id = ANY($` + strconv.Itoa(len(args)) + `::text[]::uuid[])`
	}
	query += ` ORDER BY day DESC, marked_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CountAttendance(ctx context.Context, schoolID, date string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM attendance WHERE school_id = $1 AND day = $2`, schoolID, date).Scan(&count)
	return count, mapErr(err)
}
