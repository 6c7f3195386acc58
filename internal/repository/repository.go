// Package repository defines the storage contract shared by the postgres and
// in-memory stores. Every uniqueness rule of the domain is enforced here.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Thomas-Okram/TapTell/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrStudentUnavailable is returned by AssignCard when the student is
	// missing from the school or inactive.
	ErrStudentUnavailable = errors.New("student not found or inactive")
	// ErrSchoolInUse blocks deleting a school that still owns rows.
	ErrSchoolInUse = errors.New("school still has dependent records")
)

type SchoolPatch struct {
	Name     *string
	Code     *string
	Timezone *string
	Active   *bool
}

type DevicePatch struct {
	Name     *string
	Location *string
	Active   *bool
}

type StudentPatch struct {
	Name             *string
	ClassName        *string
	Section          *string
	RollNumber       *string
	House            *string
	GuardianWhatsapp *string
	Active           *bool
}

type CardPatch struct {
	Status *model.CardStatus
	Notes  *string
}

type StudentFilter struct {
	ClassName  string
	Section    string
	RollNumber string
	// Query matches name, roll number or guardian number, case-insensitively.
	Query string
}

type CardFilter struct {
	Status model.CardStatus
	// Query matches uid or notes, case-insensitively.
	Query string
}

type AttendanceFilter struct {
	Date       string
	From       string
	To         string
	StudentIDs []string
	// RestrictStudents applies StudentIDs even when it is empty.
	RestrictStudents bool
}

type Schools interface {
	CreateSchool(ctx context.Context, school model.School) (model.School, error)
	ListSchools(ctx context.Context) ([]model.School, error)
	GetSchool(ctx context.Context, id string) (model.School, error)
	GetSchoolByCode(ctx context.Context, code string) (model.School, error)
	UpdateSchool(ctx context.Context, id string, patch SchoolPatch) (model.School, error)
	DeleteSchool(ctx context.Context, id string) error
}

type Admins interface {
	CreateAdmin(ctx context.Context, admin model.Admin) (model.Admin, error)
	ListSchoolAdmins(ctx context.Context, schoolID string) ([]model.Admin, error)
	GetAdminByKeyID(ctx context.Context, keyID string) (model.Admin, error)
	ListPinAdmins(ctx context.Context, schoolID string) ([]model.Admin, error)
	SetAdminPin(ctx context.Context, id, pinHash string) error
	SetAdminActive(ctx context.Context, id string, active bool) error
}

type Devices interface {
	CreateDevice(ctx context.Context, device model.Device) (model.Device, error)
	ListDevices(ctx context.Context, schoolID string) ([]model.Device, error)
	ListDevicesByIDs(ctx context.Context, schoolID string, ids []string) ([]model.Device, error)
	GetActiveDeviceByKey(ctx context.Context, key string) (model.Device, error)
	UpdateDevice(ctx context.Context, schoolID, id string, patch DevicePatch) (model.Device, error)
	RotateDeviceKey(ctx context.Context, schoolID, id, key string) (model.Device, error)
}

type Students interface {
	CreateStudent(ctx context.Context, student model.Student) (model.Student, error)
	ListStudents(ctx context.Context, schoolID string, filter StudentFilter) ([]model.Student, error)
	ListStudentsByIDs(ctx context.Context, schoolID string, ids []string) ([]model.Student, error)
	GetStudent(ctx context.Context, schoolID, id string) (model.Student, error)
	// UpdateStudent applies the patch. When it sets Active=false the
	// student's cards are unassigned in the same transaction.
	UpdateStudent(ctx context.Context, schoolID, id string, patch StudentPatch) (model.Student, error)
}

type Cards interface {
	CreateCard(ctx context.Context, card model.Card) (model.Card, error)
	ListCards(ctx context.Context, schoolID string, filter CardFilter) ([]model.Card, error)
	GetCard(ctx context.Context, schoolID, id string) (model.Card, error)
	GetCardByUID(ctx context.Context, schoolID, uid string) (model.Card, error)
	UpdateCard(ctx context.Context, schoolID, id string, patch CardPatch) (model.Card, error)
	// AssignCard unassigns every other card of the student and assigns the
	// target card atomically.
	AssignCard(ctx context.Context, schoolID, cardID, studentID string) (model.Card, error)
	UnassignCard(ctx context.Context, schoolID, cardID string) (model.Card, error)
	DisableCard(ctx context.Context, schoolID, cardID string) (model.Card, error)
}

type Attendance interface {
	// InsertAttendance returns ErrConflict when the student already has a
	// row for the date.
	InsertAttendance(ctx context.Context, row model.Attendance) (model.Attendance, error)
	GetAttendanceForDay(ctx context.Context, schoolID, studentID, date string) (model.Attendance, error)
	SetAttendancePhoto(ctx context.Context, id string, url string, externalID *string) error
	MarkAttendanceNotified(ctx context.Context, id string, at time.Time) error
	ListAttendance(ctx context.Context, schoolID string, filter AttendanceFilter) ([]model.Attendance, error)
	CountAttendance(ctx context.Context, schoolID, date string) (int, error)
}

type Store interface {
	Schools
	Admins
	Devices
	Students
	Cards
	Attendance
	Ping(ctx context.Context) error
}
