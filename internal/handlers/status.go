package handlers

import (
	"net/http"
	"time"

	"github.com/aawaaz/grievance-portal/internal/auth"
	"github.com/aawaaz/grievance-portal/internal/models"
	"github.com/aawaaz/grievance-portal/internal/toast"
)

// StatusHandler reports the session, the live channel and recent toasts
type StatusHandler struct {
	live    LiveStatus
	session *auth.Session
	history *toast.History
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(live LiveStatus, session *auth.Session, history *toast.History) *StatusHandler {
	return &StatusHandler{live: live, session: session, history: history}
}

type statusResponse struct {
	Authenticated bool                 `json:"authenticated"`
	User          *models.User         `json:"user,omitempty"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
	Live          models.ChannelStatus `json:"live"`
}

// Status handles GET /api/v1/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.session.Current()
	resp := statusResponse{
		Authenticated: st.Authenticated(),
		User:          st.User,
		Live:          h.live.Status(),
	}
	if exp := h.session.ExpiresAt(); !exp.IsZero() && st.Token != "" {
		resp.ExpiresAt = &exp
	}
	respondJSON(w, http.StatusOK, resp)
}

// Toasts handles GET /api/v1/toasts
func (h *StatusHandler) Toasts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"toasts": h.history.List(),
		"count":  h.history.Len(),
	})
}
