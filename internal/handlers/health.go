package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/models"
)

const version = "1.0.0"

var startTime = time.Now()

// Pinger is an optional dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// LiveStatus exposes the live channel's state
type LiveStatus interface {
	Status() models.ChannelStatus
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	live    LiveStatus
	archive Pinger
	cache   Pinger
	logger  *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. archive and cache may be nil.
func NewHealthHandler(live LiveStatus, archive, cache Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{live: live, archive: archive, cache: cache, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Version:   version,
		Uptime:    time.Since(startTime).String(),
		LiveState: h.live.Status().State,
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:    "ready",
		Version:   version,
		Uptime:    time.Since(startTime).String(),
		LiveState: h.live.Status().State,
		Archive:   probe(r.Context(), h.archive),
		Cache:     probe(r.Context(), h.cache),
	}

	if status.Archive == "disconnected" || status.Cache == "disconnected" {
		h.logger.Warnw("Readiness check failed", "archive", status.Archive, "cache", status.Cache)
		status.Status = "not ready"
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}
