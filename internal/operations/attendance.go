package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/arrival"
	"github.com/Thomas-Okram/TapTell/internal/metrics"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type MarkInput struct {
	UID             string
	PhotoURL        string
	PhotoExternalID string
	PhotoBase64     string
}

type MarkResult struct {
	Attendance    model.Attendance
	Student       model.Student
	AlreadyMarked bool
}

// MarkAttendance records at most one PRESENT row per student per
// school-local day. Photo and notification work runs after the row is
// committed and can never undo it.
func (s *Service) MarkAttendance(ctx context.Context, device model.Device, in MarkInput) (MarkResult, error) {
	result, err := s.markAttendance(ctx, device, in)
	switch {
	case err != nil:
		metrics.Marks.WithLabelValues(metrics.ResultRejected).Inc()
	case result.AlreadyMarked:
		metrics.Marks.WithLabelValues(metrics.ResultAlreadyMarked).Inc()
	default:
		metrics.Marks.WithLabelValues(metrics.ResultMarked).Inc()
	}
	return result, err
}

func (s *Service) markAttendance(ctx context.Context, device model.Device, in MarkInput) (MarkResult, error) {
	uid := strings.TrimSpace(in.UID)
	if uid == "" {
		return MarkResult{}, validationError("uid is required")
	}

	card, err := s.store.GetCardByUID(ctx, device.SchoolID, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return MarkResult{}, notFoundError("Card not found")
	}
	if err != nil {
		return MarkResult{}, internalError(err)
	}
	if card.Status != model.CardAssigned || card.AssignedStudentID == nil {
		return MarkResult{}, &Error{Kind: KindCardNotAssigned, Message: "Card not assigned"}
	}

	student, err := s.store.GetStudent(ctx, device.SchoolID, *card.AssignedStudentID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !student.Active) {
		return MarkResult{}, &Error{Kind: KindStudentInactive, Message: "Student not found / inactive"}
	}
	if err != nil {
		return MarkResult{}, internalError(err)
	}

	school, err := s.store.GetSchool(ctx, device.SchoolID)
	if err != nil {
		return MarkResult{}, internalError(err)
	}
	now := s.now()
	date, err := model.LocalDate(now, school.Timezone)
	if err != nil {
		return MarkResult{}, internalError(err)
	}

	existing, err := s.store.GetAttendanceForDay(ctx, school.ID, student.ID, date)
	if err == nil {
		return MarkResult{Attendance: existing, Student: student, AlreadyMarked: true}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return MarkResult{}, internalError(err)
	}

	deviceID, cardUID := device.ID, card.UID
	row, err := s.store.InsertAttendance(ctx, model.Attendance{
		SchoolID:  school.ID,
		StudentID: student.ID,
		Date:      date,
		Status:    model.AttendancePresent,
		MarkedAt:  now.UTC(),
		DeviceID:  &deviceID,
		CardUID:   &cardUID,
	})
	if errors.Is(err, repository.ErrConflict) {
		// Lost a race with a concurrent scan; the winner's row stands.
		existing, getErr := s.store.GetAttendanceForDay(ctx, school.ID, student.ID, date)
		if getErr != nil {
			return MarkResult{}, internalError(getErr)
		}
		return MarkResult{Attendance: existing, Student: student, AlreadyMarked: true}, nil
	}
	if err != nil {
		return MarkResult{}, internalError(err)
	}

	if s.arrivals != nil {
		outcome := s.arrivals.AfterMark(ctx, arrival.Mark{
			Attendance:      row,
			Student:         student,
			School:          school,
			PhotoURL:        strings.TrimSpace(in.PhotoURL),
			PhotoExternalID: strings.TrimSpace(in.PhotoExternalID),
			PhotoBase64:     in.PhotoBase64,
		})
		row.PhotoURL = outcome.PhotoURL
	}
	return MarkResult{Attendance: row, Student: student}, nil
}

type AttendanceQuery struct {
	Date       string
	From       string
	To         string
	ClassName  string
	Section    string
	RollNumber string
}

// AttendanceItem is an attendance row joined with its student and device.
type AttendanceItem struct {
	Attendance model.Attendance
	Student    *model.Student
	Device     *model.Device
}

// GetAttendance lists rows for one day (default today in the school's zone)
// or an inclusive from..to range, optionally narrowed by roster fields.
func (s *Service) GetAttendance(ctx context.Context, schoolID string, q AttendanceQuery) ([]AttendanceItem, error) {
	school, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	filter := repository.AttendanceFilter{}
	from, to := strings.TrimSpace(q.From), strings.TrimSpace(q.To)
	if from != "" && to != "" {
		if !model.ValidDate(from) || !model.ValidDate(to) {
			return nil, validationError("from and to must be YYYY-MM-DD")
		}
		filter.From, filter.To = from, to
	} else {
		date, err := s.resolveDate(school, q.Date)
		if err != nil {
			return nil, err
		}
		filter.Date = date
	}

	studentFilter := repository.StudentFilter{
		ClassName:  strings.TrimSpace(q.ClassName),
		Section:    strings.TrimSpace(q.Section),
		RollNumber: strings.TrimSpace(q.RollNumber),
	}
	if studentFilter.ClassName != "" || studentFilter.Section != "" || studentFilter.RollNumber != "" {
		students, err := s.store.ListStudents(ctx, schoolID, studentFilter)
		if err != nil {
			return nil, internalError(err)
		}
		if len(students) == 0 {
			return []AttendanceItem{}, nil
		}
		filter.RestrictStudents = true
		for _, student := range students {
			filter.StudentIDs = append(filter.StudentIDs, student.ID)
		}
	}

	rows, err := s.store.ListAttendance(ctx, schoolID, filter)
	if err != nil {
		return nil, internalError(err)
	}
	return s.joinAttendance(ctx, schoolID, rows)
}

type Dashboard struct {
	School model.School
	Date   string
	Count  int
}

// Dashboard counts attendance for a day, today by default.
func (s *Service) Dashboard(ctx context.Context, schoolID, date string) (Dashboard, error) {
	school, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return Dashboard{}, err
	}
	date, err = s.resolveDate(school, date)
	if err != nil {
		return Dashboard{}, err
	}
	count, err := s.store.CountAttendance(ctx, school.ID, date)
	if err != nil {
		return Dashboard{}, internalError(err)
	}
	return Dashboard{School: school, Date: date, Count: count}, nil
}

type DayRoster struct {
	School model.School
	Date   string
	Items  []AttendanceItem
}

// AttendanceDay returns one day's arrivals, latest first.
func (s *Service) AttendanceDay(ctx context.Context, schoolID, date string) (DayRoster, error) {
	school, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return DayRoster{}, err
	}
	date, err = s.resolveDate(school, date)
	if err != nil {
		return DayRoster{}, err
	}
	rows, err := s.store.ListAttendance(ctx, school.ID, repository.AttendanceFilter{Date: date})
	if err != nil {
		return DayRoster{}, internalError(err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	items, err := s.joinAttendance(ctx, school.ID, rows)
	if err != nil {
		return DayRoster{}, err
	}
	return DayRoster{School: school, Date: date, Items: items}, nil
}

func (s *Service) resolveDate(school model.School, date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		today, err := model.LocalDate(s.now(), school.Timezone)
		if err != nil {
			return "", internalError(err)
		}
		return today, nil
	}
	if !model.ValidDate(date) {
		return "", validationError("date must be YYYY-MM-DD")
	}
	return date, nil
}

func (s *Service) joinAttendance(ctx context.Context, schoolID string, rows []model.Attendance) ([]AttendanceItem, error) {
	studentIDs := make([]string, 0, len(rows))
	var deviceIDs []string
	seenStudent, seenDevice := map[string]bool{}, map[string]bool{}
	for _, row := range rows {
		if !seenStudent[row.StudentID] {
			seenStudent[row.StudentID] = true
			studentIDs = append(studentIDs, row.StudentID)
		}
		if row.DeviceID != nil && !seenDevice[*row.DeviceID] {
			seenDevice[*row.DeviceID] = true
			deviceIDs = append(deviceIDs, *row.DeviceID)
		}
	}

	students := map[string]model.Student{}
	if len(studentIDs) > 0 {
		list, err := s.store.ListStudentsByIDs(ctx, schoolID, studentIDs)
		if err != nil {
			return nil, internalError(err)
		}
		for _, student := range list {
			students[student.ID] = student
		}
	}
	devices := map[string]model.Device{}
	if len(deviceIDs) > 0 {
		list, err := s.store.ListDevicesByIDs(ctx, schoolID, deviceIDs)
		if err != nil {
			return nil, internalError(err)
		}
		for _, device := range list {
			devices[device.ID] = device
		}
	}

	items := make([]AttendanceItem, 0, len(rows))
	for _, row := range rows {
		item := AttendanceItem{Attendance: row}
		if student, ok := students[row.StudentID]; ok {
			item.Student = &student
		}
		if row.DeviceID != nil {
			if device, ok := devices[*row.DeviceID]; ok {
				item.Device = &device
			}
		}
		items = append(items, item)
	}
	return items, nil
}
