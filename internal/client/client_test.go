package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aawaaz/grievance-portal/internal/assets"
	"github.com/aawaaz/grievance-portal/internal/auth"
	"github.com/aawaaz/grievance-portal/internal/models"
	"github.com/aawaaz/grievance-portal/internal/normalize"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := auth.Claims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-for-unit-testing"))
	require.NoError(t, err)
	return token
}

func newTestClient(srv *httptest.Server, tokens TokenSource, opts ...Option) *Client {
	norm := normalize.New(assets.FromAPIBase(srv.URL + "/api"))
	return New(srv.URL+"/api", tokens, norm, zap.NewNop().Sugar(), opts...)
}

func TestClient_ListComplaintsUnwrapsEnvelope(t *testing.T) {
	var gotAuth, gotQuery, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/complaints", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {"complaints": [
			{"_id": "c1", "title": "Leaking tap", "status": "open", "attachments": ["uploads/a.png"]},
			{"_id": "c2", "title": "Noise", "isAnonymous": true, "studentId": "S-9"}
		]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, staticToken("tok"))
	got, err := c.ListComplaints(context.Background(), ComplaintFilter{Status: models.StatusOpen, Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "limit=20&status=open", gotQuery)
	assert.NotEmpty(t, gotRequestID)

	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, models.StatusOpen, got[0].Status)
	assert.Equal(t, []string{srv.URL + "/uploads/a.png"}, got[0].Attachments)
	assert.True(t, got[1].IsAnonymous)
	assert.Empty(t, got[1].StudentID)
}

func TestClient_BareResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/notifications":
			_, _ = w.Write([]byte(`[{"_id": "n1", "message": "hi", "isRead": 0, "type": "remark_added"}]`))
		case "/api/analytics":
			_, _ = w.Write([]byte(`{"total": 7, "byStatus": [{"_id": "open", "count": 4}]}`))
		case "/api/auth/me":
			_, _ = w.Write([]byte(`{"user": {"_id": "u1", "name": "Asha", "role": "staff"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv, staticToken("tok"))
	ctx := context.Background()

	notes, err := c.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.False(t, notes[0].IsRead)
	assert.Equal(t, models.NotificationNewRemark, notes[0].Type)

	stats, err := c.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(7), stats.TotalComplaints)
	assert.Equal(t, map[string]float64{"open": 4}, stats.StatusCounts)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, models.RoleStaff, me.Role)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/complaints/missing":
			http.NotFound(w, r)
		case "/api/complaints/locked":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message": "database unavailable"}`))
		}
	}))
	defer srv.Close()

	unauthorized := 0
	c := newTestClient(srv, staticToken("tok"), WithUnauthorizedHook(func() { unauthorized++ }))
	ctx := context.Background()

	_, err := c.GetComplaint(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetComplaint(ctx, "locked")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, unauthorized)

	_, err = c.GetAnalytics(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database unavailable", apiErr.Message)

	_, err = c.GetComplaint(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_NoToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	c := newTestClient(srv, staticToken(""))
	_, err := c.ListNotifications(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, calls)
}

func TestClient_CachesPerUser(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data": {"_id": "c1", "title": "Broken fan"}}`))
	}))
	defer srv.Close()

	cache := newMemCache()
	tokenA := signToken(t, "u1")
	a := newTestClient(srv, staticToken(tokenA), WithCache(cache, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := a.GetComplaint(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Broken fan", got.Title)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.sets)

	b := newTestClient(srv, staticToken(signToken(t, "u2")), WithCache(cache, time.Minute))
	_, err := b.GetComplaint(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// notifications bypass the cache
	_, _ = a.ListNotifications(ctx)
	_, _ = a.ListNotifications(ctx)
	assert.Equal(t, 4, calls)
}

func TestClient_LoginPopulatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"_id": "u1", "name": "Ravi", "role": "student"}}`))
	}))
	defer srv.Close()

	session := auth.NewSession()
	c := newTestClient(srv, session)

	user, err := c.Login(context.Background(), session, signToken(t, "u1"))
	require.NoError(t, err)
	assert.Equal(t, "Ravi", user.Name)
	assert.True(t, session.Current().Authenticated())
	assert.Equal(t, "u1", session.Current().UserID())
}

func TestClient_LoginFailureClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := auth.NewSession()
	c := newTestClient(srv, session)

	_, err := c.Login(context.Background(), session, signToken(t, "u1"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, session.Token())
}
