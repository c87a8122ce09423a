// Package live keeps the portal's live notification channel bound to the
// authenticated session and turns pushed events into toasts.
package live

import (
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/assets"
	"github.com/aawaaz/grievance-portal/internal/auth"
	"github.com/aawaaz/grievance-portal/internal/models"
	"github.com/aawaaz/grievance-portal/internal/toast"
)

// State of the live channel
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "disconnected"
}

// Channel owns at most one Socket at a time. Every socket is tagged with a
// generation; callbacks from an older generation are ignored, so nothing is
// dispatched for a connection once it has been torn down.
type Channel struct {
	endpoint string
	dialer   Dialer
	opts     Options
	notifier toast.Notifier
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	state     State
	connected bool
	gen       uint64
	socket    *Socket
	token     string
	userID    string
	closed    bool
}

// NewChannel creates a disconnected channel for endpoint
func NewChannel(endpoint string, dialer Dialer, notifier toast.Notifier, opts Options, logger *zap.SugaredLogger) *Channel {
	return &Channel{
		endpoint: endpoint,
		dialer:   dialer,
		opts:     opts,
		notifier: notifier,
		logger:   logger,
		state:    StateDisconnected,
	}
}

// Endpoint derives the websocket URL from the API base URL:
// "https://host/api" becomes "wss://host/ws".
func Endpoint(apiBaseURL string) string {
	base := assets.StaticBase(apiBaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return strings.TrimRight(base, "/") + "/ws"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String()
}

// Bind follows session: every change tears down the current connection
// and, when signed in, opens a new one. The returned function unbinds.
func (c *Channel) Bind(s *auth.Session) func() {
	unsubscribe := s.Subscribe(func(st auth.State) {
		c.SetAuth(st.Token, st.UserID())
	})
	cur := s.Current()
	c.SetAuth(cur.Token, cur.UserID())
	return unsubscribe
}

// SetAuth applies new credentials. Any existing connection is closed
// before a new one is opened; a connection is opened only when both token
// and userID are set. Repeating the current credentials is a no-op.
func (c *Channel) SetAuth(token, userID string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if token == c.token && userID == c.userID && (c.socket != nil || token == "" || userID == "") {
		c.mu.Unlock()
		return
	}

	old, oldUser := c.detachLocked(), c.userID
	c.token, c.userID = token, userID

	var sock *Socket
	if token != "" && userID != "" {
		sock = NewSocket(c.dialer, c.endpoint, token, c.opts, c.logger)
		c.register(sock, c.gen)
		c.socket = sock
		c.state = StateConnecting
	}
	c.mu.Unlock()

	if old != nil {
		c.logger.Infow("Live channel torn down", "user_id", oldUser)
		_ = old.Close()
	}
	if sock != nil {
		c.logger.Infow("Live channel connecting", "user_id", userID, "endpoint", c.endpoint)
		sock.Open()
	}
}

// Close tears the channel down for good
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	old := c.detachLocked()
	c.state = StateClosed
	c.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// Connected reports the connection-status flag
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// State returns the current state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a read-only view for consumers
func (c *Channel) Status() models.ChannelStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.ChannelStatus{
		State:     c.state.String(),
		Connected: c.connected,
		UserID:    c.userID,
	}
}

// detachLocked retires the current socket, if any, and returns it for
// closing outside the lock.
func (c *Channel) detachLocked() *Socket {
	old := c.socket
	c.socket = nil
	c.gen++
	c.connected = false
	c.state = StateDisconnected
	return old
}

// register installs the dispatch table for one connection instance
func (c *Channel) register(s *Socket, gen uint64) {
	s.On(EventConnect, func(Event) {
		c.transition(gen, func() {
			c.state = StateConnected
			c.connected = true
			c.logger.Infow("Live channel connected", "user_id", c.userID)
		})
	})
	s.On(EventDisconnect, func(ev Event) {
		c.transition(gen, func() {
			c.state = StateDisconnected
			c.connected = false
			c.logger.Warnw("Live channel disconnected", "user_id", c.userID, "error", ev.Err)
		})
	})
	s.On(EventConnectError, func(ev Event) {
		c.transition(gen, func() {
			c.connected = false
			c.logger.Warnw("Live channel connection error", "user_id", c.userID, "error", ev.Err)
		})
	})
	s.On(EventReconnectAttempt, func(Event) {
		c.transition(gen, func() {
			c.state = StateReconnecting
		})
	})
	s.On(EventReconnectFailed, func(ev Event) {
		c.transition(gen, func() {
			c.socket = nil
			c.state = StateDisconnected
			c.connected = false
			c.logger.Errorw("Live channel gave up reconnecting", "user_id", c.userID, "error", ev.Err)
		})
	})

	for name, build := range dispatchTable {
		build := build
		s.On(name, func(ev Event) {
			c.dispatch(gen, build, ev)
		})
	}
}

// dispatch shows the toast for ev if gen is still the live generation.
// Show runs outside the lock so a slow notifier never stalls readers of
// the channel state or a teardown.
func (c *Channel) dispatch(gen uint64, build toastBuilder, ev Event) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	t := build(ev)
	c.mu.Unlock()

	c.notifier.Show(t)
}

// transition runs fn under the lock if gen is still the live generation.
func (c *Channel) transition(gen uint64, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}
	fn()
}
