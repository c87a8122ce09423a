// Package auth holds the authenticated session of the portal client.
// The session owns the bearer token and the signed-in user, and tells
// subscribers (the live channel) whenever either changes.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aawaaz/grievance-portal/internal/models"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are the portal API token claims the client reads.
// The client cannot verify the signature; the API does that.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Owner returns the user id carried by the token
func (c *Claims) Owner() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// ParseClaims decodes token claims without verifying the signature and
// rejects expired tokens.
func ParseClaims(token string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// State is a snapshot of the session. Token is empty when signed out.
type State struct {
	Token string
	User  *models.User
}

// Authenticated reports whether both a token and a user are present
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil && s.User.ID != ""
}

// UserID returns the signed-in user's id or ""
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Listener is called with the new state after every change
type Listener func(State)

// Session is the single owner of authentication state
type Session struct {
	// changeMu serializes changes so listeners observe them in order
	changeMu  sync.Mutex
	mu        sync.Mutex
	state     State
	claims    *Claims
	listeners []Listener
	expiry    *time.Timer
	now       func() time.Time
}

// NewSession creates a signed-out session
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Subscribe registers fn for state changes and returns a function that
// removes it. fn is not called for the current state.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// SetToken validates and stores a token, keeping the current user only
// if the token belongs to them.
func (s *Session) SetToken(token string) error {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	claims, err := ParseClaims(token, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	user := s.state.User
	if user != nil && claims.Owner() != "" && claims.Owner() != user.ID {
		user = nil
	}
	s.claims = claims
	s.armExpiryLocked(claims)
	s.state = State{Token: token, User: user}
	snapshot, listeners := s.state, s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
	return nil
}

// Login stores a token and the user it authenticates
func (s *Session) Login(token string, user models.User) error {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	claims, err := ParseClaims(token, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.claims = claims
	s.armExpiryLocked(claims)
	s.state = State{Token: token, User: &user}
	snapshot, listeners := s.state, s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
	return nil
}

// Logout clears the session
func (s *Session) Logout() {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	if s.state.Token == "" && s.state.User == nil {
		s.mu.Unlock()
		return
	}
	s.claims = nil
	s.armExpiryLocked(nil)
	s.state = State{}
	snapshot, listeners := s.state, s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// armExpiryLocked replaces the expiry timer with one that signs out when
// claims expire.
func (s *Session) armExpiryLocked(claims *Claims) {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	if claims == nil || claims.ExpiresAt == nil {
		return
	}
	s.expiry = time.AfterFunc(claims.ExpiresAt.Sub(s.now()), func() { s.expire(claims) })
}

// expire signs out if claims still belong to the current token
func (s *Session) expire(claims *Claims) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()

	s.mu.Lock()
	if s.claims != claims {
		s.mu.Unlock()
		return
	}
	s.claims = nil
	s.expiry = nil
	s.state = State{}
	snapshot, listeners := s.state, s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// Current returns the session state, treating an expired token as signed out.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.claims != nil && s.claims.ExpiresAt != nil && !s.now().Before(s.claims.ExpiresAt.Time) {
		return State{}
	}
	return s.state
}

// Token returns the bearer token or ""
func (s *Session) Token() string {
	return s.Current().Token
}

// ExpiresAt returns the token expiry, zero if unknown
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.claims == nil || s.claims.ExpiresAt == nil {
		return time.Time{}
	}
	return s.claims.ExpiresAt.Time
}

func (s *Session) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func notify(listeners []Listener, st State) {
	for _, l := range listeners {
		l(st)
	}
}
