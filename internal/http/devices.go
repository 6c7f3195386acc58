package http

import (
	"net/http"

	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type deviceRequest struct {
	SchoolID string  `json:"schoolId"`
	Name     *string `json:"name"`
	Location *string `json:"location"`
	IsActive *bool   `json:"isActive"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.schoolScope(w, r, "")
	if !ok {
		return
	}
	devices, err := s.ops.ListDevices(r.Context(), schoolID)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"devices": mapSlice(devices, newDeviceView)})
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	device, err := s.ops.CreateDevice(r.Context(), schoolID, deref(req.Name), req.Location)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"device": newDeviceView(device)})
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	device, err := s.ops.UpdateDevice(r.Context(), schoolID, pathID(r), repository.DevicePatch{
		Name:     req.Name,
		Location: req.Location,
		Active:   req.IsActive,
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"device": newDeviceView(device)})
}

func (s *Server) handleDeactivateDevice(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.schoolScope(w, r, "")
	if !ok {
		return
	}
	if err := s.ops.DeactivateDevice(r.Context(), schoolID, pathID(r)); err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleRotateDeviceKey(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	device, err := s.ops.RotateDeviceKey(r.Context(), schoolID, pathID(r))
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"device": newDeviceView(device)})
}
