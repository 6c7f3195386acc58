package http

import (
	"net/http"

	"github.com/Thomas-Okram/TapTell/internal/operations"
)

func (s *Server) handleGetAttendance(w http.ResponseWriter, r *http.Request) {
	schoolID, ok := s.schoolScope(w, r, "")
	if !ok {
		return
	}
	query := r.URL.Query()
	section := query.Get("sec")
	if section == "" {
		section = query.Get("section")
	}
	items, err := s.ops.GetAttendance(r.Context(), schoolID, operations.AttendanceQuery{
		Date:       query.Get("date"),
		From:       query.Get("from"),
		To:         query.Get("to"),
		ClassName:  query.Get("className"),
		Section:    section,
		RollNumber: query.Get("rollNumber"),
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}
	writeOK(w, map[string]any{
		"count": len(items),
		"items": mapSlice(items, newAttendanceItemView),
	})
}
