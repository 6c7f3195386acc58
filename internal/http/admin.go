package http

import (
	"net/http"
)

type loginPinRequest struct {
	SchoolCode string `json:"schoolCode" validate:"notblank"`
	PIN        string `json:"pin" validate:"notblank"`
}

func (s *Server) handleLoginPin(w http.ResponseWriter, r *http.Request) {
	var req loginPinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !checkRequest(w, req, "schoolCode and pin are required") {
		return
	}
	result, err := s.ops.LoginWithPIN(r.Context(), req.SchoolCode, req.PIN)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{
		"admin": map[string]any{
			"id":       result.Admin.ID,
			"name":     result.Admin.Name,
			"role":     result.Admin.Role,
			"schoolId": result.Admin.SchoolID,
		},
		"school":    newSchoolRef(result.School, true),
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.UTC(),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())
	admin := map[string]any{
		"id":       nilIfEmpty(principal.AdminID()),
		"role":     principal.Role(),
		"schoolId": nilIfEmpty(principal.SchoolID()),
	}
	writeOK(w, map[string]any{"admin": admin})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.readScope(w, r)
	if !ok {
		return
	}
	dash, err := s.ops.Dashboard(r.Context(), schoolID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{
		"school":               newSchoolRef(dash.School, true),
		"date":                 dash.Date,
		"todayAttendanceCount": dash.Count,
	})
}

func (s *Server) handleAttendanceDay(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.readScope(w, r)
	if !ok {
		return
	}
	day, err := s.ops.AttendanceDay(r.Context(), schoolID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{
		"school": newSchoolRef(day.School, false),
		"date":   day.Date,
		"count":  len(day.Items),
		"items":  mapSlice(day.Items, newAttendanceItemView),
	})
}

func nilIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
