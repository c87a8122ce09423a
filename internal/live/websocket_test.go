package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newPushServer upgrades authenticated requests and writes frames in order
func newPushServer(t *testing.T, token string, frames ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token || r.URL.Query().Get("token") != token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWSDialer_ReadsEvents(t *testing.T) {
	srv := newPushServer(t, "tok",
		`not json`,
		`{"data": {"message": "no name"}}`,
		`{"event": "notification", "data": {"message": "hello"}}`,
	)

	conn, err := NewWSDialer(time.Second).Dial(context.Background(), wsURL(srv), "tok")
	require.NoError(t, err)
	defer conn.Close()

	ev, err := conn.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, EventNotification, ev.Name)
	assert.Equal(t, "hello", ev.field("message"))

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	_, err = conn.ReadEvent()
	assert.Error(t, err)
}

func TestWSDialer_RejectedHandshake(t *testing.T) {
	srv := newPushServer(t, "tok")

	_, err := NewWSDialer(time.Second).Dial(context.Background(), wsURL(srv), "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestChannel_OverWebsocket(t *testing.T) {
	srv := newPushServer(t, "tok",
		`{"event": "status_update", "data": {"oldStatus": "open", "newStatus": "in_progress"}}`,
	)

	ch, history := newTestChannel(NewWSDialer(time.Second), fastOptions())
	ch.endpoint = wsURL(srv)
	defer ch.Close()

	ch.SetAuth("tok", "u1")
	require.Eventually(t, func() bool { return history.Len() == 1 }, waitFor, tick)
	assert.True(t, ch.Connected())
	assert.Equal(t, "Complaint status updated: open → in_progress", history.List()[0].Message)
}

func TestEvent_Field(t *testing.T) {
	ev := Event{Name: EventNewComplaint, Data: []byte(`{"title": 42, "flag": true, "obj": {}}`)}
	assert.Equal(t, "42", ev.field("title"))
	assert.Equal(t, "true", ev.field("flag"))
	assert.Equal(t, "", ev.field("obj"))
	assert.Equal(t, "", ev.field("missing"))
	assert.Equal(t, "", Event{Data: []byte(`[1]`)}.field("x"))
}
