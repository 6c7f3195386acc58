package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Thomas-Okram/TapTell/internal/auth"
	"github.com/Thomas-Okram/TapTell/internal/config"
	"github.com/Thomas-Okram/TapTell/internal/media"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/operations"
	"github.com/Thomas-Okram/TapTell/internal/repository"
	"github.com/Thomas-Okram/TapTell/internal/telemetry"
)

const maxBodyBytes = 15 << 20

type Server struct {
	cfg      config.Config
	ops      *operations.Service
	schools  auth.SchoolLookup
	resolver *auth.Resolver
	photos   media.Store
	logger   *slog.Logger
}

func NewServer(cfg config.Config, store repository.Store, ops *operations.Service, photos media.Store) *Server {
	if photos == nil {
		photos = media.Off{}
	}
	return &Server{
		cfg:     cfg,
		ops:     ops,
		schools: store,
		resolver: auth.NewResolver(
			auth.StaticKeyResolver{Key: cfg.SuperAdminKey},
			auth.TokenResolver{Secret: cfg.TokenSecret},
			auth.LegacyKeyResolver{Admins: store},
		),
		photos: photos,
		logger: telemetry.Logger("http"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(s.corsOptions()))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login-pin", s.handleLoginPin)
		r.With(s.adminAuth, s.requireRole(model.RoleSuperAdmin, model.RoleSchoolAdmin)).Get("/me", s.handleMe)
		r.With(s.adminAuth, s.requireRole(model.RoleSuperAdmin, model.RoleSchoolAdmin)).Get("/dashboard", s.handleDashboard)
		r.With(s.adminAuth, s.requireRole(model.RoleSuperAdmin, model.RoleSchoolAdmin)).Get("/attendance/day", s.handleAttendanceDay)
	})

	r.Route("/api/kiosk", func(r chi.Router) {
		r.With(s.deviceAuth).Post("/auth/test", s.handleKioskAuthTest)
		r.With(s.deviceAuth).Post("/attendance/mark", s.handleMarkAttendance)
	})
	r.With(s.deviceAuth).Post("/api/media/upload", s.handleMediaUpload)

	r.Route("/api/students", func(r chi.Router) {
		r.Use(s.adminAuth, s.requireRole(model.RoleSuperAdmin, model.RoleSchoolAdmin))
		r.Get("/", s.handleListStudents)
		r.Post("/", s.handleCreateStudent)
		r.Patch("/{id}", s.handleUpdateStudent)
		r.Delete("/{id}", s.handleDeleteStudent)
	})

	r.Route("/api/cards", func(r chi.Router) {
		r.Use(s.adminAuth, s.requireRole(model.RoleSuperAdmin, model.RoleSchoolAdmin))
		r.Get("/", s.handleListCards)
		r.Post("/", s.handleCreateCard)
		r.Post("/assign", s.handleAssignCardByBody)
		r.Patch("/{id}", s.handleUpdateCard)
		r.Delete("/{id}", s.handleDisableCard)
		r.Post("/{id}/assign", s.handleAssignCard)
		r.Post("/{id}/unassign", s.handleUnassignCard)
	})

	r.Route("/api/devices", func(r chi.Router) {
		r.Use(s.adminAuth, s.requireRole(model.RoleSuperAdmin, model.RoleSchoolAdmin))
		r.Get("/", s.handleListDevices)
		r.Post("/", s.handleCreateDevice)
		r.Patch("/{id}", s.handleUpdateDevice)
		r.Delete("/{id}", s.handleDeactivateDevice)
		r.Post("/{id}/rotate-key", s.handleRotateDeviceKey)
	})

	r.With(s.adminAuth, s.requireRole(model.RoleSuperAdmin, model.RoleSchoolAdmin)).Get("/api/attendance", s.handleGetAttendance)

	r.Route("/api/super", func(r chi.Router) {
		r.Use(s.adminAuth, s.requireRole(model.RoleSuperAdmin))
		r.Get("/schools", s.handleListSchools)
		r.Post("/schools", s.handleCreateSchool)
		r.Patch("/schools/{id}", s.handleUpdateSchool)
		r.Delete("/schools/{id}", s.handleDeleteSchool)
		r.Get("/school-admins", s.handleListSchoolAdmins)
		r.Post("/school-admins", s.handleCreateKeyAdmin)
		r.Post("/school-admins/pin", s.handleCreatePinAdmin)
		r.Post("/school-admins/{id}/rotate-pin", s.handleRotatePin)
		r.Patch("/school-admins/{id}", s.handleSetAdminActive)
	})

	return otelhttp.NewHandler(r, telemetry.ServiceName)
}

// corsOptions allows any origin when CORS_ORIGIN is unset.
func (s *Server) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", adminKeyHeader, deviceKeyHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(s.cfg.CORSOrigins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		opts.AllowedOrigins = s.cfg.CORSOrigins
	}
	return opts
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": telemetry.ServiceName,
		"time":    time.Now().UTC(),
	})
}
