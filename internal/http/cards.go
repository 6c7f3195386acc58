package http

import (
	"net/http"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/operations"
	"github.com/Thomas-Okram/TapTell/internal/repository"
)

type cardRequest struct {
	SchoolID string  `json:"schoolId"`
	UID      string  `json:"uid"`
	Status   *string `json:"status"`
	Notes    *string `json:"notes"`
}

type assignRequest struct {
	SchoolID  string `json:"schoolId"`
	CardID    string `json:"cardId"`
	StudentID string `json:"studentId" validate:"notblank"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.schoolScope(w, r, "")
	if !ok {
		return
	}
	query := r.URL.Query()
	cards, err := s.ops.ListCards(r.Context(), schoolID, repository.CardFilter{
		Status: model.CardStatus(strings.ToUpper(strings.TrimSpace(query.Get("status")))),
		Query:  query.Get("q"),
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"cards": mapSlice(cards, func(v operations.CardView) cardView {
		return newCardView(v.Card, v.Student)
	})})
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	card, err := s.ops.CreateCard(r.Context(), schoolID, req.UID, req.Notes)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"card": newCardView(card, nil)})
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	patch := repository.CardPatch{Notes: req.Notes}
	if req.Status != nil {
		status := model.CardStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		patch.Status = &status
	}
	card, err := s.ops.UpdateCard(r.Context(), schoolID, pathID(r), patch)
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"card": newCardView(card, nil)})
}

func (s *Server) handleDisableCard(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.schoolScope(w, r, "")
	if !ok {
		return
	}
	if _, err := s.ops.DisableCard(r.Context(), schoolID, pathID(r)); err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handleAssignCard(w http.ResponseWriter, r *http.Request) {
	s.assignCard(w, r, func(assignRequest) string { return pathID(r) })
}

func (s *Server) handleAssignCardByBody(w http.ResponseWriter, r *http.Request) {
	s.assignCard(w, r, func(req assignRequest) string { return strings.TrimSpace(req.CardID) })
}

func (s *Server) assignCard(w http.ResponseWriter, r *http.Request, cardID func(assignRequest) string) {
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !checkRequest(w, req, "studentId is required") {
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	card, err := s.ops.AssignCard(r.Context(), schoolID, cardID(req), strings.TrimSpace(req.StudentID))
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"card": newCardView(card, nil)})
}

func (s *Server) handleUnassignCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	schoolID, ok := s.schoolScope(w, r, req.SchoolID)
	if !ok {
		return
	}
	card, err := s.ops.UnassignCard(r.Context(), schoolID, pathID(r))
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"card": newCardView(card, nil)})
}
