package live

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dialer opens one transport connection authenticated by token
type Dialer interface {
	Dial(ctx context.Context, endpoint, token string) (Conn, error)
}

// Conn is an open transport connection. ReadEvent blocks until a frame
// arrives or the connection fails; Close unblocks it.
type Conn interface {
	ReadEvent() (Event, error)
	Close() error
}

// Options bound the automatic reconnection done by Socket
type Options struct {
	// Attempts is the number of reconnection dials after a failure
	Attempts int
	// Delay before the first reconnection; doubles per attempt up to MaxDelay
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultOptions: 5 attempts starting at 1s
func DefaultOptions() Options {
	return Options{Attempts: 5, Delay: time.Second, MaxDelay: 5 * time.Second}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o == (Options{}) {
		return def
	}
	if o.Attempts < 0 {
		o.Attempts = 0
	}
	if o.Delay <= 0 {
		o.Delay = def.Delay
	}
	if o.MaxDelay < o.Delay {
		o.MaxDelay = o.Delay
	}
	return o
}

// backoff returns the wait before reconnection attempt n (1-based)
func (o Options) backoff(n int) time.Duration {
	d := o.Delay
	for i := 1; i < n && d < o.MaxDelay; i++ {
		d *= 2
	}
	if d > o.MaxDelay {
		d = o.MaxDelay
	}
	return d
}

// Handler receives one event
type Handler func(Event)

// Socket is a self-reconnecting connection for one token. Handlers are
// registered per socket and dropped when it closes; a closed socket never
// emits again.
type Socket struct {
	dialer   Dialer
	endpoint string
	token    string
	opts     Options
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	handlers map[string]Handler
	conn     Conn
	started  bool
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSocket creates an unopened socket
func NewSocket(dialer Dialer, endpoint, token string, opts Options, logger *zap.SugaredLogger) *Socket {
	return &Socket{
		dialer:   dialer,
		endpoint: endpoint,
		token:    token,
		opts:     opts.withDefaults(),
		logger:   logger,
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
}

// On registers h for events named name, replacing any previous handler
func (s *Socket) On(name string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.handlers[name] = h
}

// Open starts dialing in the background. It is a no-op after the first
// call or once closed.
func (s *Socket) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

// Close unregisters every handler, cancels pending reconnection and
// closes the live connection before returning.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.handlers = nil
	conn, cancel := s.conn, s.cancel
	s.conn = nil
	if !s.started {
		close(s.done)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Done is closed when the socket's background loop has exited
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) run(ctx context.Context) {
	defer close(s.done)

	failures := 0
	for {
		conn, err := s.dialer.Dial(ctx, s.endpoint, s.token)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.emit(Event{Name: EventConnectError, Err: err})
			if failures >= s.opts.Attempts {
				s.emit(Event{Name: EventReconnectFailed, Err: err})
				return
			}
			failures++
			if !s.wait(ctx, failures) {
				return
			}
			continue
		}

		if !s.attach(conn) {
			_ = conn.Close()
			return
		}
		failures = 0
		s.emit(Event{Name: EventConnect})

		err = s.read(conn)
		s.detach(conn)
		if ctx.Err() != nil {
			return
		}
		s.emit(Event{Name: EventDisconnect, Err: err})

		failures++
		if !s.wait(ctx, failures) {
			return
		}
	}
}

func (s *Socket) read(conn Conn) error {
	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			return err
		}
		s.emit(ev)
	}
}

// wait sleeps before reconnection attempt n, reporting false if cancelled.
func (s *Socket) wait(ctx context.Context, n int) bool {
	s.emit(Event{Name: EventReconnectAttempt})

	t := time.NewTimer(s.opts.backoff(n))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Socket) attach(conn Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

// detach closes conn unless Close already took it
func (s *Socket) detach(conn Conn) {
	s.mu.Lock()
	owned := s.conn == conn
	if owned {
		s.conn = nil
	}
	s.mu.Unlock()
	if owned {
		_ = conn.Close()
	}
}

// emit delivers ev to its handler in arrival order. Events after Close
// are discarded.
func (s *Socket) emit(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	h := s.handlers[ev.Name]
	s.mu.Unlock()

	if h == nil {
		s.logger.Debugw("Unhandled live event", "event", ev.Name)
		return
	}
	h(ev)
}
