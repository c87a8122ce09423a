package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSDialer dials the portal's websocket endpoint. The bearer token travels
// in the Authorization header and in the "token" query parameter, since
// some proxies strip headers on upgrade.
type WSDialer struct {
	dialer *websocket.Dialer
}

// NewWSDialer creates a dialer with the given handshake timeout
func NewWSDialer(handshakeTimeout time.Duration) *WSDialer {
	return &WSDialer{dialer: &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}}
}

// Dial opens an authenticated websocket connection
func (d *WSDialer) Dial(ctx context.Context, endpoint, token string) (Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid live endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("X-Request-ID", uuid.NewString())

	conn, resp, err := d.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake rejected (%s): %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// ReadEvent returns the next well-formed frame, skipping non-JSON and
// nameless ones.
func (c *wsConn) ReadEvent() (Event, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Name == "" {
			continue
		}
		return ev, nil
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
