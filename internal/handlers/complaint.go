// Package handlers contains HTTP request handlers for the local portal API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/client"
	"github.com/aawaaz/grievance-portal/internal/export"
	"github.com/aawaaz/grievance-portal/internal/models"
	"github.com/aawaaz/grievance-portal/internal/services"
)

// ComplaintHandler handles complaint, notification and analytics endpoints
type ComplaintHandler struct {
	svc    *services.ComplaintService
	logger *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(svc *services.ComplaintService, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/complaints
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := client.ComplaintFilter{
		Status:   models.ComplaintStatus(q.Get("status")),
		Category: q.Get("category"),
		Priority: models.Priority(q.Get("priority")),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page")
		return
	}

	complaints, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.serviceError(w, "Failed to list complaints", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"complaints": complaints,
		"count":      len(complaints),
	})
}

// Get handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Complaint id required")
		return
	}

	complaint, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, "Failed to fetch complaint", err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Notifications handles GET /api/v1/notifications?unread=true
func (h *ComplaintHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	notes, err := h.svc.Notifications(r.Context(), unreadOnly)
	if err != nil {
		h.serviceError(w, "Failed to list notifications", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notes,
		"count":         len(notes),
	})
}

// Analytics handles GET /api/v1/analytics
func (h *ComplaintHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analytics(r.Context())
	if err != nil {
		h.serviceError(w, "Failed to fetch analytics", err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// ExportAnalytics handles GET /api/v1/analytics/export
func (h *ComplaintHandler) ExportAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analytics(r.Context())
	if err != nil {
		h.serviceError(w, "Failed to fetch analytics", err)
		return
	}

	buf, filename, err := export.Analytics(a, time.Now())
	if err != nil {
		h.logger.Errorw("Failed to build analytics workbook", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to export analytics")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// serviceError maps portal errors onto local status codes
func (h *ComplaintHandler) serviceError(w http.ResponseWriter, msg string, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNoToken):
		respondError(w, http.StatusUnauthorized, "Portal session required")
	case errors.As(err, &apiErr):
		h.logger.Warnw(msg, "status", apiErr.StatusCode, "error", err)
		respondError(w, http.StatusBadGateway, apiErr.Message)
	default:
		h.logger.Errorw(msg, "error", err)
		respondError(w, http.StatusBadGateway, msg)
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
