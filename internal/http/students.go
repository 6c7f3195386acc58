package http

import (
	"net/http"

	"github.com/Thomas-Okram/TapTell/internal/operations"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

// studentRequest accepts section as either sec or section.
type studentRequest struct {
	SchoolID       string  `json:"schoolId"`
	Name           *string `json:"name"`
	ClassName      *string `json:"className"`
	Sec            *string `json:"sec"`
	Section        *string `json:"section"`
	RollNumber     *string `json:"rollNumber"`
	House          *string `json:"house"`
	ParentWhatsapp *string `json:"parentWhatsapp"`
	IsActive       *bool   `json:"isActive"`
}

func (req studentRequest) section() *string {
	if req.Sec != nil {
		return req.Sec
	}
	return req.Section
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.schoolScope(w, r, "")
	if !ok {
		return
	}
	query := r.URL.Query()
	section := query.Get("sec")
	if section == "" {
		section = query.Get("section")
	}
	students, err := s.ops.ListStudents(r.Context(), schoolID, repository.StudentFilter{
		ClassName:  query.Get("className"),
		Section:    section,
		RollNumber: query.Get("rollNumber"),
		Query:      query.Get("q"),
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"students": mapSlice(students, newStudentView)})
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	student, err := s.ops.CreateStudent(r.Context(), schoolID, operations.StudentInput{
		Name:             deref(req.Name),
		ClassName:        deref(req.ClassName),
		Section:          deref(req.section()),
		RollNumber:       deref(req.RollNumber),
		House:            deref(req.House),
		GuardianWhatsapp: deref(req.ParentWhatsapp),
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"student": newStudentView(student)})
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	student, err := s.ops.UpdateStudent(r.Context(), schoolID, pathID(r), repository.StudentPatch{
		Name:             req.Name,
		ClassName:        req.ClassName,
		Section:          req.section(),
		RollNumber:       req.RollNumber,
		House:            req.House,
		GuardianWhatsapp: req.ParentWhatsapp,
		Active:           req.IsActive,
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"student": newStudentView(student)})
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.schoolScope(w, r, "")
	if !ok {
		return
	}
	if err := s.ops.DeactivateStudent(r.Context(), schoolID, pathID(r)); err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, nil)
}
