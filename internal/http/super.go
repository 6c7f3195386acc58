package http

import (
	"net/http"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/operations"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type schoolRequest struct {
	Name     *string `json:"name"`
	Code     *string `json:"code"`
	Timezone *string `json:"timezone"`
	IsActive *bool   `json:"isActive"`
}

func (s *Server) handleListSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := s.ops.ListSchools(r.Context())
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"schools": mapSlice(schools, newSchoolView)})
}

func (s *Server) handleCreateSchool(w http.ResponseWriter, r *http.Request) {
	var req schoolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	school, err := s.ops.CreateSchool(r.Context(), operations.SchoolInput{
		Name:     deref(req.Name),
		Code:     deref(req.Code),
		Timezone: deref(req.Timezone),
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"school": newSchoolView(school)})
}

func (s *Server) handleUpdateSchool(w http.ResponseWriter, r *http.Request) {
	var req schoolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	school, err := s.ops.UpdateSchool(r.Context(), pathID(r), repository.SchoolPatch{
		Name:     req.Name,
		Code:     req.Code,
		Timezone: req.Timezone,
		Active:   req.IsActive,
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"school": newSchoolView(school)})
}

func (s *Server) handleDeleteSchool(w http.ResponseWriter, r *http.Request) {
	if err := s.ops.DeleteSchool(r.Context(), pathID(r)); err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, nil)
}

type adminRequest struct {
	Name     string `json:"name" validate:"notblank"`
	SchoolID string `json:"schoolId" validate:"notblank"`
	PIN      string `json:"pin" validate:"omitempty,pin"`
}

func (s *Server) handleCreatePinAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.PIN = strings.TrimSpace(req.PIN)
	if !checkRequest(w, req, "name and schoolId are required") {
		return
	}
	created, err := s.ops.CreatePinAdmin(r.Context(), req.Name, req.SchoolID, req.PIN)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"adminId": created.AdminID, "pin": created.PIN})
}

func (s *Server) handleCreateKeyAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.PIN = ""
	if !checkRequest(w, req, "name and schoolId are required") {
		return
	}
	created, err := s.ops.CreateKeyAdmin(r.Context(), req.Name, req.SchoolID)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"adminId": created.AdminID, "key": created.Key})
}

func (s *Server) handleListSchoolAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.ops.ListSchoolAdmins(r.Context(), r.URL.Query().Get("schoolId"))
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"admins": mapSlice(admins, newAdminView)})
}

func (s *Server) handleRotatePin(w http.ResponseWriter, r *http.Request) {
	rotated, err := s.ops.RotatePin(r.Context(), pathID(r))
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"adminId": rotated.AdminID, "pin": rotated.PIN})
}

type adminPatchRequest struct {
	IsActive *bool `json:"isActive"`
}

func (s *Server) handleSetAdminActive(w http.ResponseWriter, r *http.Request) {
	var req adminPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "isActive must be boolean")
		return
	}
	if err := s.ops.SetAdminActive(r.Context(), pathID(r), req.IsActive); err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, nil)
}
