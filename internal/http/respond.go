package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Thomas-Okram/TapTell/internal/operations"
	"github.com/Thomas-Okram/TapTell/internal/validate"
)

// decodeJSON treats an empty body as an empty object.
func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}

func writeOK(w http.ResponseWriter, fields map[string]any) {
	payload := map[string]any{"ok": true}
	for key, value := range fields {
		payload[key] = value
	}
	writeJSON(w, http.StatusOK, payload)
}

func statusForKind(kind operations.Kind) int {
	switch kind {
	case operations.KindValidation, operations.KindCardNotAssigned:
		return http.StatusBadRequest
	case operations.KindAuthentication:
		return http.StatusUnauthorized
	case operations.KindAuthorization:
		return http.StatusForbidden
	case operations.KindNotFound, operations.KindStudentInactive:
		return http.StatusNotFound
	case operations.KindConflict:
		return http.StatusConflict
	case operations.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeOpError logs internal failures and never leaks their detail.
func (s *Server) writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	kind := operations.KindOf(err)
	if kind == operations.KindInternal {
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, statusForKind(kind), operations.Message(err))
}

// checkRequest validates a decoded payload and writes a 400 on failure.
// missing is shown when the only problem is absent fields.
func checkRequest(w http.ResponseWriter, req any, missing string) bool {
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validate.Message(err, missing))
		return false
	}
	return true
}
