// Package toast provides transient, non-blocking user notifications
// raised by the live channel and the polling fallback.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Indicators decorating a toast
const (
	IconBell    = "🔔"
	IconMemo    = "📝"
	IconRefresh = "🔄"
)

// DefaultDuration is how long a toast stays on screen
const DefaultDuration = 5000 * time.Millisecond

// Toast is a single transient notification
type Toast struct {
	ID        uuid.UUID     `json:"id"`
	Message   string        `json:"message"`
	Icon      string        `json:"icon"`
	Duration  time.Duration `json:"duration"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
}

// New creates a toast with a fresh id
func New(message, icon, source string, d time.Duration) Toast {
	return Toast{
		ID:        uuid.New(),
		Message:   message,
		Icon:      icon,
		Duration:  d,
		Source:    source,
		CreatedAt: time.Now(),
	}
}

// Notifier displays toasts. Show must not block.
type Notifier interface {
	Show(t Toast)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(t Toast)

// Show calls f(t)
func (f NotifierFunc) Show(t Toast) { f(t) }

// LogNotifier writes toasts to the structured log
type LogNotifier struct {
	logger *zap.SugaredLogger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Show logs the toast
func (n *LogNotifier) Show(t Toast) {
	n.logger.Infow(t.Icon+" "+t.Message,
		"toast_id", t.ID,
		"source", t.Source,
		"duration", t.Duration,
	)
}

// Multi fans a toast out to several notifiers in order
type Multi []Notifier

// Show forwards t to every notifier
func (m Multi) Show(t Toast) {
	for _, n := range m {
		if n != nil {
			n.Show(t)
		}
	}
}

// History keeps the most recent toasts, newest last
type History struct {
	mu    sync.RWMutex
	limit int
	items []Toast
}

// NewHistory creates a history holding at most limit toasts
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{limit: limit, items: make([]Toast, 0, limit)}
}

// Show records t, evicting the oldest entry when full
func (h *History) Show(t Toast) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == h.limit {
		copy(h.items, h.items[1:])
		h.items = h.items[:len(h.items)-1]
	}
	h.items = append(h.items, t)
}

// List returns a copy of the recorded toasts
func (h *History) List() []Toast {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Toast, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of recorded toasts
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}
