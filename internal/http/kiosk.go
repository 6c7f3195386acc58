package http

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/Thomas-Okram/TapTell/internal/arrival"
	"github.com/Thomas-Okram/TapTell/internal/media"
	"github.com/Thomas-Okram/TapTell/internal/metrics"
	"github.com/Thomas-Okram/TapTell/internal/operations"
)

func (s *Server) handleKioskAuthTest(w http.ResponseWriter, r *http.Request) {
	device := deviceFrom(r.Context())
	writeOK(w, map[string]any{
		"device": map[string]any{
			"id":       device.ID,
			"name":     device.Name,
			"schoolId": device.SchoolID,
		},
	})
}

type markRequest struct {
	UID               string `json:"uid" validate:"notblank"`
	PhotoURL          string `json:"photoUrl"`
	PhotoCloudinaryID string `json:"photoCloudinaryId"`
	PhotoExternalID   string `json:"photoExternalId"`
	PhotoBase64       string `json:"photoBase64"`
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !checkRequest(w, req, "uid is required") {
		return
	}
	externalID := req.PhotoExternalID
	if externalID == "" {
		externalID = req.PhotoCloudinaryID
	}
	result, err := s.ops.MarkAttendance(r.Context(), deviceFrom(r.Context()), operations.MarkInput{
		UID:             req.UID,
		PhotoURL:        strings.TrimSpace(req.PhotoURL),
		PhotoExternalID: strings.TrimSpace(externalID),
		PhotoBase64:     req.PhotoBase64,
	})
	if err != nil {
		s.writeOpError(w, r, err)
		return
	}

	row := result.Attendance
	message := "Attendance marked successfully"
	if result.AlreadyMarked {
		message = "Attendance already marked"
	}
	writeOK(w, map[string]any{
		"message":        message,
		"student":        newStudentSummary(result.Student, false),
		"photoUrl":       row.PhotoURL,
		"date":           row.Date,
		"markedAt":       row.MarkedAt,
		"whatsappSentAt": row.NotifiedAt,
	})
}

type uploadRequest struct {
	PhotoBase64 string `json:"photoBase64"`
	Folder      string `json:"folder"`
}

// handleMediaUpload stores a kiosk photo ahead of marking. Custom folders
// must stay under the device's school prefix.
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	if !s.photos.Enabled() {
		writeError(w, http.StatusInternalServerError, "Photo storage not configured")
		return
	}
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.PhotoBase64) == "" {
		writeError(w, http.StatusBadRequest, "photoBase64 required")
		return
	}
	if !media.LooksLikeImage(req.PhotoBase64) {
		writeError(w, http.StatusBadRequest, "Invalid image payload")
		return
	}

	device := deviceFrom(r.Context())
	folder := arrival.UploadFolder(device.SchoolID)
	if custom := strings.Trim(strings.TrimSpace(req.Folder), "/"); custom != "" {
		if !folderAllowed(custom, device.SchoolID) {
			writeError(w, http.StatusBadRequest, "Invalid folder")
			return
		}
		folder = custom
	}

	ctx := r.Context()
	if s.cfg.PhotoUploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PhotoUploadTimeout)
		defer cancel()
	}
	uploaded, err := s.photos.Upload(ctx, media.Photo{Data: req.PhotoBase64, Folder: folder})
	if errors.Is(err, media.ErrInvalidImage) {
		metrics.PhotoUploads.WithLabelValues(metrics.ResultFailed).Inc()
		writeError(w, http.StatusBadRequest, "Invalid image payload")
		return
	}
	if err != nil {
		metrics.PhotoUploads.WithLabelValues(metrics.ResultFailed).Inc()
		s.logger.ErrorContext(r.Context(), "photo upload failed", "device_id", device.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	metrics.PhotoUploads.WithLabelValues(metrics.ResultOK).Inc()
	writeOK(w, map[string]any{
		"url":       uploaded.URL,
		"public_id": uploaded.ExternalID,
	})
}

// folderAllowed reports whether a caller supplied upload folder resolves
// inside the school's prefix. Dot segments and empty segments are rejected
// outright so the prefix test runs against the literal folder name.
func folderAllowed(folder, schoolID string) bool {
	if path.Clean(folder) != folder {
		return false
	}
	return folder == arrival.UploadFolder(schoolID) || strings.HasPrefix(folder, "taptell/"+schoolID+"/")
}
