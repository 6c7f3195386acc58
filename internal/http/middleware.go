package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Thomas-Okram/TapTell/internal/auth"
	"github.com/Thomas-Okram/TapTell/internal/model"
)

const (
	adminKeyHeader  = "x-admin-key"
	deviceKeyHeader = "x-device-key"
)

type principalKey struct{}

type deviceKey struct{}

func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.resolver.Resolve(r.Context(), r.Header.Get(adminKeyHeader))
		if err != nil {
			status, message := adminAuthFailure(err)
			if status == http.StatusInternalServerError {
				s.logger.ErrorContext(r.Context(), "admin auth failed", "err", err)
			}
			writeError(w, status, message)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminAuthFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return http.StatusUnauthorized, "Missing x-admin-key"
	case errors.Is(err, auth.ErrMisconfiguredAdmin):
		return http.StatusInternalServerError, "Admin misconfigured: missing schoolId"
	case errors.Is(err, auth.ErrInvalidScope):
		return http.StatusUnauthorized, "Invalid token scope"
	case errors.Is(err, auth.ErrMalformedKey):
		return http.StatusUnauthorized, "Invalid admin key format"
	case errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "Invalid/expired token"
	case errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized, "Invalid admin key"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := principalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !principal.HasRole(roles...) {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) deviceAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device, err := s.ops.AuthenticateDevice(r.Context(), r.Header.Get(deviceKeyHeader))
		if err != nil {
			s.writeOpError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), deviceKey{}, device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(auth.Principal)
	return principal, ok
}

func deviceFrom(ctx context.Context) model.Device {
	device, _ := ctx.Value(deviceKey{}).(model.Device)
	return device
}

// schoolScope resolves the school a request acts on and writes the error
// response when it cannot. bodySchoolID is the schoolId of a decoded body.
func (s *Server) schoolScope(w http.ResponseWriter, r *http.Request, bodySchoolID string) (string, bool) {
	return s.scope(w, r, auth.ScopeRequest{
		QuerySchoolID: r.URL.Query().Get("schoolId"),
		BodySchoolID:  bodySchoolID,
	})
}

// readScope also accepts schoolCode, for the read-only dashboard routes.
func (s *Server) readScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	query := r.URL.Query()
	return s.scope(w, r, auth.ScopeRequest{
		QuerySchoolID: query.Get("schoolId"),
		SchoolCode:    query.Get("schoolCode"),
		AllowCode:     true,
	})
}

func (s *Server) scope(w http.ResponseWriter, r *http.Request, req auth.ScopeRequest) (string, bool) {
	principal, _ := principalFrom(r.Context())
	schoolID, err := auth.ResolveScope(r.Context(), principal, req, s.schools)
	if err == nil {
		return schoolID, true
	}
	switch {
	case errors.Is(err, auth.ErrSchoolRequired):
		writeError(w, http.StatusBadRequest, "schoolId is required for SUPER_ADMIN")
	case errors.Is(err, auth.ErrInvalidSchoolID):
		writeError(w, http.StatusBadRequest, "Invalid schoolId")
	case errors.Is(err, auth.ErrScopeNotResolved):
		writeError(w, http.StatusBadRequest, "School not resolved. SCHOOL_ADMIN uses token scope; SUPER_ADMIN must pass schoolId or schoolCode.")
	case errors.Is(err, auth.ErrSchoolNotFound):
		writeError(w, http.StatusNotFound, "School not found")
	case errors.Is(err, auth.ErrMisconfiguredAdmin):
		writeError(w, http.StatusInternalServerError, "Admin misconfigured: missing schoolId")
	default:
		s.logger.ErrorContext(r.Context(), "school scope failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
	return "", false
}

// pathID trims the {id} route parameter.
func pathID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
