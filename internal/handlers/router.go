package handlers

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/middleware"
)

// Router wires the local API
type Router struct {
	Health         *HealthHandler
	Status         *StatusHandler
	Complaints     *ComplaintHandler
	Session        middleware.SessionState
	AllowedOrigins []string
	ExportRPM      int
	Logger         *zap.Logger
}

// Build returns the chi router. ctx bounds background middleware work.
func (rt Router) Build(ctx context.Context) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(rt.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	exportRPM := rt.ExportRPM
	if exportRPM <= 0 {
		exportRPM = 10
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", rt.Health.Check)
		r.Get("/health/ready", rt.Health.Ready)

		// Session and live channel
		r.Get("/status", rt.Status.Status)
		r.Get("/toasts", rt.Status.Toasts)

		// Portal data (requires a signed-in session)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(rt.Session))

			r.Get("/complaints", rt.Complaints.List)
			r.Get("/complaints/{id}", rt.Complaints.Get)
			r.Get("/notifications", rt.Complaints.Notifications)
			r.Get("/analytics", rt.Complaints.Analytics)
			r.With(middleware.RateLimit(ctx, exportRPM)).Get("/analytics/export", rt.Complaints.ExportAnalytics)
		})
	})

	return r
}
