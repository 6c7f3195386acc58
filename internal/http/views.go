package http

import (
	"time"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/operations"
)

type schoolView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newSchoolView(s model.School) schoolView {
	return schoolView{
		ID:        s.ID,
		Name:      s.Name,
		Code:      s.Code,
		Timezone:  s.Timezone,
		IsActive:  s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// schoolRef is the short school shape embedded in other payloads.
type schoolRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Timezone string `json:"timezone,omitempty"`
}

func newSchoolRef(s model.School, withZone bool) schoolRef {
	ref := schoolRef{ID: s.ID, Name: s.Name, Code: s.Code}
	if withZone {
		ref.Timezone = s.Timezone
	}
	return ref
}

type studentView struct {
	ID             string    `json:"id"`
	SchoolID       string    `json:"schoolId"`
	Name           string    `json:"name"`
	ClassName      string    `json:"className"`
	Sec            string    `json:"sec"`
	RollNumber     string    `json:"rollNumber"`
	House          string    `json:"house"`
	ParentWhatsapp string    `json:"parentWhatsapp"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func newStudentView(s model.Student) studentView {
	return studentView{
		ID:             s.ID,
		SchoolID:       s.SchoolID,
		Name:           s.Name,
		ClassName:      s.ClassName,
		Sec:            s.Section,
		RollNumber:     s.RollNumber,
		House:          s.House,
		ParentWhatsapp: s.GuardianWhatsapp,
		IsActive:       s.Active,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

type studentSummary struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	ClassName  string `json:"className"`
	Sec        string `json:"sec"`
	RollNumber string `json:"rollNumber"`
	House      string `json:"house"`
}

func newStudentSummary(s model.Student, withID bool) studentSummary {
	out := studentSummary{
		Name:       s.Name,
		ClassName:  s.ClassName,
		Sec:        s.Section,
		RollNumber: s.RollNumber,
		House:      s.House,
	}
	if withID {
		out.ID = s.ID
	}
	return out
}

type cardView struct {
	ID                string          `json:"id"`
	SchoolID          string          `json:"schoolId"`
	UID               string          `json:"uid"`
	Status            string          `json:"status"`
	AssignedStudentID *string         `json:"assignedStudentId"`
	AssignedStudent   *studentSummary `json:"assignedStudent,omitempty"`
	Notes             *string         `json:"notes"`
	IssuedAt          *time.Time      `json:"issuedAt"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func newCardView(c model.Card, student *model.Student) cardView {
	out := cardView{
		ID:                c.ID,
		SchoolID:          c.SchoolID,
		UID:               c.UID,
		Status:            string(c.Status),
		AssignedStudentID: c.AssignedStudentID,
		Notes:             c.Notes,
		IssuedAt:          c.IssuedAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if student != nil {
		summary := newStudentSummary(*student, true)
		out.AssignedStudent = &summary
	}
	return out
}

type deviceView struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"schoolId"`
	Name      string    `json:"name"`
	DeviceKey string    `json:"deviceKey"`
	Location  *string   `json:"location"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newDeviceView(d model.Device) deviceView {
	return deviceView{
		ID:        d.ID,
		SchoolID:  d.SchoolID,
		Name:      d.Name,
		DeviceKey: d.Key,
		Location:  d.Location,
		IsActive:  d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type deviceRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location *string `json:"location"`
}

type attendanceItemView struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	Time           time.Time       `json:"time"`
	Status         string          `json:"status"`
	PhotoURL       *string         `json:"photoUrl"`
	WhatsappSentAt *time.Time      `json:"whatsappSentAt"`
	Student        *studentSummary `json:"student"`
	Device         *deviceRef      `json:"device"`
}

func newAttendanceItemView(item operations.AttendanceItem) attendanceItemView {
	row := item.Attendance
	out := attendanceItemView{
		ID:             row.ID,
		Date:           row.Date,
		Time:           row.MarkedAt,
		Status:         string(row.Status),
		PhotoURL:       row.PhotoURL,
		WhatsappSentAt: row.NotifiedAt,
	}
	if item.Student != nil {
		summary := newStudentSummary(*item.Student, true)
		out.Student = &summary
	}
	if item.Device != nil {
		out.Device = &deviceRef{ID: item.Device.ID, Name: item.Device.Name, Location: item.Device.Location}
	}
	return out
}

type adminView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	SchoolID  *string    `json:"schoolId"`
	School    *schoolRef `json:"school"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func newAdminView(v operations.AdminView) adminView {
	out := adminView{
		ID:        v.Admin.ID,
		Name:      v.Admin.Name,
		SchoolID:  v.Admin.SchoolID,
		IsActive:  v.Admin.Active,
		CreatedAt: v.Admin.CreatedAt,
		UpdatedAt: v.Admin.UpdatedAt,
	}
	if v.School != nil {
		ref := newSchoolRef(*v.School, false)
		out.School = &ref
	}
	return out
}

func mapSlice[T, V any](in []T, fn func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, item := range in {
		out = append(out, fn(item))
	}
	return out
}
