package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/auth"
	"github.com/aawaaz/grievance-portal/internal/models"
	"github.com/aawaaz/grievance-portal/internal/toast"
)

// SourcePoll marks toasts raised by the polling fallback
const SourcePoll = "poll"

// NotificationSource lists the signed-in user's notifications
type NotificationSource interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
}

// SeenStore remembers which notifications were already surfaced
type SeenStore interface {
	Seen(userID, notificationID string) (bool, error)
	MarkSeen(userID string, notificationIDs ...string) error
	CountSeen(userID string) (int, error)
}

// LiveStatus reports whether the live channel is delivering events
type LiveStatus interface {
	Connected() bool
}

// StateSource yields the current session state
type StateSource interface {
	Current() auth.State
}

// Poller fetches notifications on a ticker while the live channel is down
// and raises a toast for each unread one not surfaced before. The first
// pass for a user with no recorded history stores the existing backlog
// without toasting it.
type Poller struct {
	source   NotificationSource
	seen     SeenStore
	live     LiveStatus
	session  StateSource
	notifier toast.Notifier
	logger   *zap.SugaredLogger

	mu     sync.Mutex
	primed map[string]bool
}

// NewPoller creates a polling fallback worker
func NewPoller(source NotificationSource, seen SeenStore, live LiveStatus, session StateSource, notifier toast.Notifier, logger *zap.SugaredLogger) *Poller {
	return &Poller{
		source:   source,
		seen:     seen,
		live:     live,
		session:  session,
		notifier: notifier,
		logger:   logger,
		primed:   make(map[string]bool),
	}
}

// Start runs Poll every interval until ctx is done
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		p.logger.Info("Notification poller disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Notification poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.logger.Warnw("Notification poll failed", "error", err)
			}
		}
	}
}

// Run starts the loop in the background. The returned channel is closed
// once the loop, including any pass in flight, has returned.
func (p *Poller) Run(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Start(ctx, interval)
	}()
	return done
}

// firstPass reports whether this is the first pass for userID in this
// process with nothing recorded from earlier runs.
func (p *Poller) firstPass(userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.primed[userID] {
		return false, nil
	}
	known, err := p.seen.CountSeen(userID)
	if err != nil {
		return false, err
	}
	p.primed[userID] = true
	return known == 0, nil
}

// Poll runs one pass and returns the number of toasts raised. While the
// live channel is connected the pass only records current ids, since the
// channel already toasted them.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	st := p.session.Current()
	if !st.Authenticated() {
		return 0, nil
	}
	userID := st.UserID()

	notes, err := p.source.ListNotifications(ctx)
	if err != nil {
		return 0, err
	}

	first, err := p.firstPass(userID)
	if err != nil {
		return 0, err
	}
	if first || (p.live != nil && p.live.Connected()) {
		ids := make([]string, 0, len(notes))
		for _, n := range notes {
			ids = append(ids, n.ID)
		}
		p.logger.Debugw("Recorded notifications without toasting", "user_id", userID, "count", len(ids), "first", first)
		return 0, p.seen.MarkSeen(userID, ids...)
	}

	var fresh []string
	for _, n := range notes {
		if n.IsRead || n.ID == "" {
			continue
		}
		seen, err := p.seen.Seen(userID, n.ID)
		if err != nil {
			return len(fresh), err
		}
		if seen {
			continue
		}
		p.notifier.Show(toast.New(n.Message, toast.IconBell, SourcePoll, toast.DefaultDuration))
		fresh = append(fresh, n.ID)
	}

	if len(fresh) > 0 {
		p.logger.Infow("Polled notifications", "user_id", userID, "new", len(fresh))
	}
	return len(fresh), p.seen.MarkSeen(userID, fresh...)
}
