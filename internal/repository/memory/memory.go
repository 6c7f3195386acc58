// Package memory is a mutex-guarded Store used by tests and local runs
// without PostgreSQL. It enforces the same unique constraints as the
// postgres schema.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	last       time.Time
	schools    map[string]model.School
	admins     map[string]model.Admin
	devices    map[string]model.Device
	students   map[string]model.Student
	cards      map[string]model.Card
	attendance map[string]model.Attendance
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:        time.Now,
		schools:    map[string]model.School{},
		admins:     map[string]model.Admin{},
		devices:    map[string]model.Device{},
		students:   map[string]model.Student{},
		cards:      map[string]model.Card{},
		attendance: map[string]model.Attendance{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// stamp keeps insertion order observable through CreatedAt even when two
// rows are written within the same clock tick.
func (s *Store) stamp() time.Time {
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Nanosecond)
	}
	s.last = now
	return now
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Schools

func (s *Store) CreateSchool(_ context.Context, school model.School) (model.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.schools {
		if existing.Code == school.Code {
			return model.School{}, repository.ErrConflict
		}
	}
	now := s.stamp()
	school.ID = newID(school.ID)
	school.CreatedAt, school.UpdatedAt = now, now
	s.schools[school.ID] = school
	return school, nil
}

func (s *Store) ListSchools(context.Context) ([]model.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.School, 0, len(s.schools))
	for _, school := range s.schools {
		out = append(out, school)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetSchool(_ context.Context, id string) (model.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	school, ok := s.schools[id]
	if !ok {
		return model.School{}, repository.ErrNotFound
	}
	return school, nil
}

func (s *Store) GetSchoolByCode(_ context.Context, code string) (model.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, school := range s.schools {
		if school.Code == code {
			return school, nil
		}
	}
	return model.School{}, repository.ErrNotFound
}

func (s *Store) UpdateSchool(_ context.Context, id string, patch repository.SchoolPatch) (model.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	school, ok := s.schools[id]
	if !ok {
		return model.School{}, repository.ErrNotFound
	}
	if patch.Code != nil {
		for otherID, other := range s.schools {
			if otherID != id && other.Code == *patch.Code {
				return model.School{}, repository.ErrConflict
			}
		}
		school.Code = *patch.Code
	}
	if patch.Name != nil {
		school.Name = *patch.Name
	}
	if patch.Timezone != nil {
		school.Timezone = *patch.Timezone
	}
	if patch.Active != nil {
		school.Active = *patch.Active
	}
	school.UpdatedAt = s.stamp()
	s.schools[id] = school
	return school, nil
}

func (s *Store) DeleteSchool(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[id]; !ok {
		return repository.ErrNotFound
	}
	if s.schoolInUse(id) {
		return repository.ErrSchoolInUse
	}
	delete(s.schools, id)
	return nil
}

func (s *Store) schoolInUse(id string) bool {
	for _, a := range s.admins {
		if a.SchoolID != nil && *a.SchoolID == id {
			return true
		}
	}
	for _, d := range s.devices {
		if d.SchoolID == id {
			return true
		}
	}
	for _, st := range s.students {
		if st.SchoolID == id {
			return true
		}
	}
	for _, c := range s.cards {
		if c.SchoolID == id {
			return true
		}
	}
	for _, a := range s.attendance {
		if a.SchoolID == id {
			return true
		}
	}
	return false
}

// Admins

func (s *Store) CreateAdmin(_ context.Context, admin model.Admin) (model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if admin.APIKeyID != nil {
		for _, existing := range s.admins {
			if existing.APIKeyID != nil && *existing.APIKeyID == *admin.APIKeyID {
				return model.Admin{}, repository.ErrConflict
			}
		}
	}
	now := s.stamp()
	admin.ID = newID(admin.ID)
	admin.CreatedAt, admin.UpdatedAt = now, now
	s.admins[admin.ID] = admin
	return admin, nil
}

func (s *Store) ListSchoolAdmins(_ context.Context, schoolID string) ([]model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Admin
	for _, admin := range s.admins {
		if admin.Role != model.RoleSchoolAdmin {
			continue
		}
		if schoolID != "" && (admin.SchoolID == nil || *admin.SchoolID != schoolID) {
			continue
		}
		out = append(out, admin)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetAdminByKeyID(_ context.Context, keyID string) (model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, admin := range s.admins {
		if admin.Active && admin.APIKeyID != nil && *admin.APIKeyID == keyID {
			return admin, nil
		}
	}
	return model.Admin{}, repository.ErrNotFound
}

func (s *Store) ListPinAdmins(_ context.Context, schoolID string) ([]model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Admin
	for _, admin := range s.admins {
		if admin.Role == model.RoleSchoolAdmin && admin.Active && admin.PinHash != nil &&
			admin.SchoolID != nil && *admin.SchoolID == schoolID {
			out = append(out, admin)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SetAdminPin(_ context.Context, id, pinHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	admin, ok := s.admins[id]
	if !ok || admin.Role != model.RoleSchoolAdmin {
		return repository.ErrNotFound
	}
	admin.PinHash = &pinHash
	admin.Active = true
	admin.UpdatedAt = s.stamp()
	s.admins[id] = admin
	return nil
}

func (s *Store) SetAdminActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	admin, ok := s.admins[id]
	if !ok || admin.Role != model.RoleSchoolAdmin {
		return repository.ErrNotFound
	}
	admin.Active = active
	admin.UpdatedAt = s.stamp()
	s.admins[id] = admin
	return nil
}

// Devices

func (s *Store) CreateDevice(_ context.Context, device model.Device) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.devices {
		if existing.Key == device.Key {
			return model.Device{}, repository.ErrConflict
		}
	}
	now := s.stamp()
	device.ID = newID(device.ID)
	device.CreatedAt, device.UpdatedAt = now, now
	s.devices[device.ID] = device
	return device, nil
}

func (s *Store) ListDevices(_ context.Context, schoolID string) ([]model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Device
	for _, device := range s.devices {
		if device.SchoolID == schoolID {
			out = append(out, device)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListDevicesByIDs(_ context.Context, schoolID string, ids []string) ([]model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Device
	for _, id := range ids {
		if device, ok := s.devices[id]; ok && device.SchoolID == schoolID {
			out = append(out, device)
		}
	}
	return out, nil
}

func (s *Store) GetActiveDeviceByKey(_ context.Context, key string) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, device := range s.devices {
		if device.Active && device.Key == key {
			return device, nil
		}
	}
	return model.Device{}, repository.ErrNotFound
}

func (s *Store) UpdateDevice(_ context.Context, schoolID, id string, patch repository.DevicePatch) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[id]
	if !ok || device.SchoolID != schoolID {
		return model.Device{}, repository.ErrNotFound
	}
	if patch.Name != nil {
		device.Name = *patch.Name
	}
	if patch.Location != nil {
		device.Location = patch.Location
	}
	if patch.Active != nil {
		device.Active = *patch.Active
	}
	device.UpdatedAt = s.stamp()
	s.devices[id] = device
	return device, nil
}

func (s *Store) RotateDeviceKey(_ context.Context, schoolID, id, key string) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[id]
	if !ok || device.SchoolID != schoolID {
		return model.Device{}, repository.ErrNotFound
	}
	for otherID, other := range s.devices {
		if otherID != id && other.Key == key {
			return model.Device{}, repository.ErrConflict
		}
	}
	device.Key = key
	device.UpdatedAt = s.stamp()
	s.devices[id] = device
	return device, nil
}

// Students

func (s *Store) CreateStudent(_ context.Context, student model.Student) (model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rosterSlotTaken(student, "") {
		return model.Student{}, repository.ErrConflict
	}
	now := s.stamp()
	student.ID = newID(student.ID)
	student.CreatedAt, student.UpdatedAt = now, now
	s.students[student.ID] = student
	return student, nil
}

// rosterSlotTaken checks (school, class, section, roll) across active and
// inactive students alike.
func (s *Store) rosterSlotTaken(student model.Student, exceptID string) bool {
	for id, existing := range s.students {
		if id == exceptID {
			continue
		}
		if existing.SchoolID == student.SchoolID && existing.ClassName == student.ClassName &&
			existing.Section == student.Section && existing.RollNumber == student.RollNumber {
			return true
		}
	}
	return false
}

func (s *Store) ListStudents(_ context.Context, schoolID string, filter repository.StudentFilter) ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := strings.ToLower(filter.Query)
	var out []model.Student
	for _, student := range s.students {
		if student.SchoolID != schoolID || !student.Active {
			continue
		}
		if filter.ClassName != "" && student.ClassName != filter.ClassName {
			continue
		}
		if filter.Section != "" && student.Section != filter.Section {
			continue
		}
		if filter.RollNumber != "" && student.RollNumber != filter.RollNumber {
			continue
		}
		if query != "" && !containsFold(query, student.Name, student.RollNumber, student.GuardianWhatsapp) {
			continue
		}
		out = append(out, student)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListStudentsByIDs(_ context.Context, schoolID string, ids []string) ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Student
	for _, id := range ids {
		if student, ok := s.students[id]; ok && student.SchoolID == schoolID {
			out = append(out, student)
		}
	}
	return out, nil
}

func (s *Store) GetStudent(_ context.Context, schoolID, id string) (model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok || student.SchoolID != schoolID {
		return model.Student{}, repository.ErrNotFound
	}
	return student, nil
}

func (s *Store) UpdateStudent(_ context.Context, schoolID, id string, patch repository.StudentPatch) (model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[id]
	if !ok || student.SchoolID != schoolID {
		return model.Student{}, repository.ErrNotFound
	}
	applyStudentPatch(&student, patch)
	if s.rosterSlotTaken(student, id) {
		return model.Student{}, repository.ErrConflict
	}
	now := s.stamp()
	student.UpdatedAt = now
	s.students[id] = student
	if patch.Active != nil && !*patch.Active {
		s.releaseCards(schoolID, id, now)
	}
	return student, nil
}

func applyStudentPatch(student *model.Student, patch repository.StudentPatch) {
	if patch.Name != nil {
		student.Name = *patch.Name
	}
	if patch.ClassName != nil {
		student.ClassName = *patch.ClassName
	}
	if patch.Section != nil {
		student.Section = *patch.Section
	}
	if patch.RollNumber != nil {
		student.RollNumber = *patch.RollNumber
	}
	if patch.House != nil {
		student.House = *patch.House
	}
	if patch.GuardianWhatsapp != nil {
		student.GuardianWhatsapp = *patch.GuardianWhatsapp
	}
	if patch.Active != nil {
		student.Active = *patch.Active
	}
}

// releaseCards must be called with s.mu held.
func (s *Store) releaseCards(schoolID, studentID string, now time.Time) {
	for id, card := range s.cards {
		if card.SchoolID == schoolID && card.AssignedStudentID != nil && *card.AssignedStudentID == studentID {
			card.Status = model.CardUnassigned
			card.AssignedStudentID = nil
			card.UpdatedAt = now
			s.cards[id] = card
		}
	}
}

// Cards

func (s *Store) CreateCard(_ context.Context, card model.Card) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cards {
		if existing.SchoolID == card.SchoolID && existing.UID == card.UID {
			return model.Card{}, repository.ErrConflict
		}
	}
	now := s.stamp()
	card.ID = newID(card.ID)
	card.CreatedAt, card.UpdatedAt = now, now
	s.cards[card.ID] = card
	return card, nil
}

func (s *Store) ListCards(_ context.Context, schoolID string, filter repository.CardFilter) ([]model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := strings.ToLower(filter.Query)
	var out []model.Card
	for _, card := range s.cards {
		if card.SchoolID != schoolID {
			continue
		}
		if filter.Status != "" && card.Status != filter.Status {
			continue
		}
		notes := ""
		if card.Notes != nil {
			notes = *card.Notes
		}
		if query != "" && !containsFold(query, card.UID, notes) {
			continue
		}
		out = append(out, card)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetCard(_ context.Context, schoolID, id string) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok || card.SchoolID != schoolID {
		return model.Card{}, repository.ErrNotFound
	}
	return card, nil
}

func (s *Store) GetCardByUID(_ context.Context, schoolID, uid string) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range s.cards {
		if card.SchoolID == schoolID && card.UID == uid {
			return card, nil
		}
	}
	return model.Card{}, repository.ErrNotFound
}

func (s *Store) UpdateCard(_ context.Context, schoolID, id string, patch repository.CardPatch) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok || card.SchoolID != schoolID {
		return model.Card{}, repository.ErrNotFound
	}
	if patch.Status != nil {
		card.Status = *patch.Status
	}
	if patch.Notes != nil {
		card.Notes = patch.Notes
	}
	card.UpdatedAt = s.stamp()
	s.cards[id] = card
	return card, nil
}

func (s *Store) AssignCard(_ context.Context, schoolID, cardID, studentID string) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	if !ok || card.SchoolID != schoolID {
		return model.Card{}, repository.ErrNotFound
	}
	student, ok := s.students[studentID]
	if !ok || student.SchoolID != schoolID || !student.Active {
		return model.Card{}, repository.ErrStudentUnavailable
	}
	now := s.stamp()
	s.releaseCards(schoolID, studentID, now)
	card.Status = model.CardAssigned
	card.AssignedStudentID = &studentID
	card.UpdatedAt = now
	s.cards[cardID] = card
	return card, nil
}

func (s *Store) UnassignCard(_ context.Context, schoolID, cardID string) (model.Card, error) {
	return s.resetCard(schoolID, cardID, model.CardUnassigned)
}

func (s *Store) DisableCard(_ context.Context, schoolID, cardID string) (model.Card, error) {
	return s.resetCard(schoolID, cardID, model.CardDisabled)
}

func (s *Store) resetCard(schoolID, cardID string, status model.CardStatus) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	if !ok || card.SchoolID != schoolID {
		return model.Card{}, repository.ErrNotFound
	}
	card.Status = status
	card.AssignedStudentID = nil
	card.UpdatedAt = s.stamp()
	s.cards[cardID] = card
	return card, nil
}

// Attendance

func (s *Store) InsertAttendance(_ context.Context, row model.Attendance) (model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attendance {
		if existing.SchoolID == row.SchoolID && existing.StudentID == row.StudentID && existing.Date == row.Date {
			return model.Attendance{}, repository.ErrConflict
		}
	}
	now := s.stamp()
	row.ID = newID(row.ID)
	row.CreatedAt, row.UpdatedAt = now, now
	s.attendance[row.ID] = row
	return row, nil
}

func (s *Store) GetAttendanceForDay(_ context.Context, schoolID, studentID, date string) (model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.attendance {
		if row.SchoolID == schoolID && row.StudentID == studentID && row.Date == date {
			return row, nil
		}
	}
	return model.Attendance{}, repository.ErrNotFound
}

func (s *Store) SetAttendancePhoto(_ context.Context, id, url string, externalID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.attendance[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.PhotoURL = &url
	if externalID != nil {
		row.PhotoExternalID = externalID
	}
	row.UpdatedAt = s.stamp()
	s.attendance[id] = row
	return nil
}

func (s *Store) MarkAttendanceNotified(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.attendance[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.NotifiedAt = &at
	row.UpdatedAt = s.stamp()
	s.attendance[id] = row
	return nil
}

func (s *Store) ListAttendance(_ context.Context, schoolID string, filter repository.AttendanceFilter) ([]model.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allowed := map[string]bool{}
	for _, id := range filter.StudentIDs {
		allowed[id] = true
	}
	var out []model.Attendance
	for _, row := range s.attendance {
		if row.SchoolID != schoolID {
			continue
		}
		if filter.RestrictStudents && !allowed[row.StudentID] {
			continue
		}
		if filter.From != "" && filter.To != "" {
			if row.Date < filter.From || row.Date > filter.To {
				continue
			}
		} else if row.Date != filter.Date {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].MarkedAt.Before(out[j].MarkedAt)
	})
	return out, nil
}

func (s *Store) CountAttendance(_ context.Context, schoolID, date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.attendance {
		if row.SchoolID == schoolID && row.Date == date {
			count++
		}
	}
	return count, nil
}

func containsFold(query string, values ...string) bool {
	for _, value := range values {
		if strings.Contains(strings.ToLower(value), query) {
			return true
		}
	}
	return false
}
