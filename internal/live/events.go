package live

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aawaaz/grievance-portal/internal/toast"
)

// Transport lifecycle events, emitted by Socket itself
const (
	EventConnect          = "connect"
	EventDisconnect       = "disconnect"
	EventConnectError     = "connect_error"
	EventReconnectAttempt = "reconnect_attempt"
	EventReconnectFailed  = "reconnect_failed"
)

// Server-pushed events
const (
	EventNotification = "notification"
	EventNewComplaint = "new_complaint"
	EventStatusUpdate = "status_update"
)

// Event is one frame of the live channel: {"event": "...", "data": {...}}
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`

	// Err is set on disconnect and connect_error
	Err error `json:"-"`
}

// NewEvent builds an event with data marshaled to JSON
func NewEvent(name string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return Event{Name: name, Data: raw}, nil
}

// field reads a top-level payload field as text; numbers and booleans are
// printed, anything else is "".
func (e Event) field(key string) string {
	if len(e.Data) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(e.Data))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return ""
	}
	switch v := payload[key].(type) {
	case string:
		return v
	case json.Number, bool:
		return fmt.Sprint(v)
	}
	return ""
}

// toastBuilder turns a server event into the toast it raises
type toastBuilder func(Event) toast.Toast

// dispatchTable maps each recognized server event to its toast.
// Role filtering of new_complaint happens server-side.
var dispatchTable = map[string]toastBuilder{
	EventNotification: func(e Event) toast.Toast {
		return toast.New(e.field("message"), toast.IconBell, EventNotification, toast.DefaultDuration)
	},
	EventNewComplaint: func(e Event) toast.Toast {
		msg := fmt.Sprintf("New complaint: %s", e.field("title"))
		return toast.New(msg, toast.IconMemo, EventNewComplaint, toast.DefaultDuration)
	},
	EventStatusUpdate: func(e Event) toast.Toast {
		msg := fmt.Sprintf("Complaint status updated: %s → %s", e.field("oldStatus"), e.field("newStatus"))
		return toast.New(msg, toast.IconRefresh, EventStatusUpdate, toast.DefaultDuration)
	},
}
