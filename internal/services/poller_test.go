package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/auth"
	"github.com/aawaaz/grievance-portal/internal/models"
	"github.com/aawaaz/grievance-portal/internal/toast"
)

type fakeSource struct {
	notes []models.Notification
	err   error
	calls int
}

func (f *fakeSource) ListNotifications(context.Context) ([]models.Notification, error) {
	f.calls++
	return f.notes, f.err
}

type memSeen struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemSeen() *memSeen { return &memSeen{seen: map[string]bool{}} }

func (m *memSeen) Seen(userID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[userID+"/"+id], nil
}

func (m *memSeen) MarkSeen(userID string, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			m.seen[userID+"/"+id] = true
		}
	}
	return nil
}

func (m *memSeen) CountSeen(userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.seen {
		if len(k) > len(userID) && k[:len(userID)+1] == userID+"/" {
			n++
		}
	}
	return n, nil
}

type liveFlag bool

func (l liveFlag) Connected() bool { return bool(l) }

type fixedState auth.State

func (f fixedState) Current() auth.State { return auth.State(f) }

func signedIn(userID string) fixedState {
	return fixedState{Token: "tok", User: &models.User{ID: userID}}
}

func TestPoller_FirstPassRecordsBacklog(t *testing.T) {
	src := &fakeSource{notes: []models.Notification{
		{ID: "n1", Message: "old", IsRead: false},
		{ID: "n2", Message: "older", IsRead: true},
	}}
	seen := newMemSeen()
	history := toast.NewHistory(10)
	p := NewPoller(src, seen, liveFlag(false), signedIn("u1"), history, zap.NewNop().Sugar())

	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, history.Len())

	src.notes = append(src.notes,
		models.Notification{ID: "n3", Message: "Remark added to your complaint"},
		models.Notification{ID: "n4", Message: "already read", IsRead: true},
	)
	n, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Equal(t, 1, history.Len())
	got := history.List()[0]
	assert.Equal(t, "Remark added to your complaint", got.Message)
	assert.Equal(t, toast.IconBell, got.Icon)
	assert.Equal(t, SourcePoll, got.Source)

	// nothing new on the next pass
	n, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPoller_EmptyFirstPassStillPrimes(t *testing.T) {
	src := &fakeSource{}
	history := toast.NewHistory(10)
	p := NewPoller(src, newMemSeen(), liveFlag(false), signedIn("u1"), history, zap.NewNop().Sugar())

	_, err := p.Poll(context.Background())
	require.NoError(t, err)

	src.notes = []models.Notification{{ID: "n1", Message: "fresh"}}
	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPoller_SkipsWhileSignedOut(t *testing.T) {
	src := &fakeSource{}
	out := NewPoller(src, newMemSeen(), liveFlag(false), fixedState{}, toast.NewHistory(10), zap.NewNop().Sugar())

	_, err := out.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, src.calls)
}

type switchableLive struct{ on atomic.Bool }

func (l *switchableLive) Connected() bool { return l.on.Load() }

func TestPoller_NoRepeatOfLiveDeliveredNotification(t *testing.T) {
	src := &fakeSource{}
	live := &switchableLive{}
	history := toast.NewHistory(10)
	p := NewPoller(src, newMemSeen(), live, signedIn("u1"), history, zap.NewNop().Sugar())
	ctx := context.Background()

	// down with an empty backlog
	_, err := p.Poll(ctx)
	require.NoError(t, err)

	// live channel up; n9 arrives and is toasted by the channel
	live.on.Store(true)
	history.Show(toast.New("Status changed", toast.IconBell, "notification", toast.DefaultDuration))
	src.notes = []models.Notification{{ID: "n9", Message: "Status changed"}}
	n, err := p.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// channel drops; n9 is still unread but must not be toasted again
	live.on.Store(false)
	n, err = p.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, history.Len())

	src.notes = append(src.notes, models.Notification{ID: "n10", Message: "Remark added"})
	n, err = p.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPoller_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("timeout")}
	p := NewPoller(src, newMemSeen(), liveFlag(false), signedIn("u1"), toast.NewHistory(1), zap.NewNop().Sugar())

	_, err := p.Poll(context.Background())
	assert.Error(t, err)
}

func TestPoller_StartStopsOnCancel(t *testing.T) {
	p := NewPoller(&fakeSource{}, newMemSeen(), liveFlag(true), signedIn("u1"), toast.NewHistory(1), zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx, 0)
		close(done)
	}()
	<-done

	done = make(chan struct{})
	go func() {
		p.Start(ctx, 1e6)
		close(done)
	}()
	cancel()
	<-done
}

type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	done    bool
}

func (b *blockingSource) ListNotifications(context.Context) ([]models.Notification, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	b.mu.Lock()
	b.done = true
	b.mu.Unlock()
	return nil, nil
}

func TestPoller_RunWaitsForPassInFlight(t *testing.T) {
	src := &blockingSource{entered: make(chan struct{}, 1), release: make(chan struct{})}
	p := NewPoller(src, newMemSeen(), liveFlag(false), signedIn("u1"), toast.NewHistory(1), zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Run(ctx, time.Millisecond)

	<-src.entered
	cancel()

	select {
	case <-done:
		t.Fatal("loop returned while a pass was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(src.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	src.mu.Lock()
	assert.True(t, src.done)
	src.mu.Unlock()
}
