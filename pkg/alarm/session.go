// Package alarm implements the live event channel: one WebSocket connection
// per screen session carrying server-pushed alerts and location requests.
//
// A Session moves Connecting -> Open -> Closed and never reopens. Alerts are
// kept in an ordered log for the session's lifetime. A location request
// triggers a lookup through the session's geo.Locator; the reply is sent only
// if the session is still open when the lookup completes. There is no
// correlation id between request and reply, so concurrent requests are
// answered by the single outstanding lookup.
package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tinyland-inc/alarmchat/pkg/bus"
	"github.com/tinyland-inc/alarmchat/pkg/geo"
	"github.com/tinyland-inc/alarmchat/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// ErrChannelUnavailable means the session is not open.
var ErrChannelUnavailable = errors.New("live channel unavailable")

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Option configures a Session.
type Option func(*Session)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) Option {
	return func(s *Session) { s.header = h }
}

// WithEventBuffer sets the subscriber buffer size.
func WithEventBuffer(n int) Option {
	return func(s *Session) { s.bufferSize = n }
}

// WithLocationTimeout bounds each location lookup. Zero waits indefinitely.
func WithLocationTimeout(d time.Duration) Option {
	return func(s *Session) { s.locationTimeout = d }
}

// Session is the per-screen live channel state.
type Session struct {
	id              string
	url             string
	dialer          *websocket.Dialer
	header          http.Header
	locator         geo.Locator
	bufferSize      int
	locationTimeout time.Duration

	events *bus.EventBus
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards state, alerts, locating and all writes to conn.
	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	alerts   []string
	locating bool

	closeOnce sync.Once
	doneOnce  sync.Once
	readDone  chan struct{}
}

// NewSession creates a session in the Connecting state. A nil locator means
// the device never has a position.
func NewSession(url string, locator geo.Locator, opts ...Option) *Session {
	if locator == nil {
		locator = geo.Unavailable{}
	}
	s := &Session{
		id:       uuid.New().String(),
		url:      url,
		dialer:   websocket.DefaultDialer,
		locator:  locator,
		state:    StateConnecting,
		readDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = bus.NewEventBus(s.bufferSize)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Dial creates a session and connects it.
func Dial(ctx context.Context, url string, locator geo.Locator, opts ...Option) (*Session, error) {
	s := NewSession(url, locator, opts...)
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Connect opens the connection. A failed attempt closes the session; there
// is no retry.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConnecting {
		state := s.state
		s.mu.Unlock()
		if state == StateClosed {
			s.markDone()
		}
		return fmt.Errorf("session %s is %s", s.id, state)
	}
	s.mu.Unlock()

	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		logger.ErrorCF("alarm", "WebSocket connect failed", map[string]any{
			"session": s.id,
			"url":     s.url,
			"error":   err.Error(),
		})
		s.shutdown()
		s.markDone()
		return fmt.Errorf("connecting to %s: %w", s.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	s.mu.Lock()
	if s.state != StateConnecting {
		// Closed while dialing.
		s.mu.Unlock()
		conn.Close()
		s.markDone()
		return ErrChannelUnavailable
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	logger.InfoCF("alarm", "WebSocket connected", map[string]any{"session": s.id, "url": s.url})

	go s.readLoop()
	return nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOpen reports whether outbound sends are currently possible.
func (s *Session) IsOpen() bool {
	return s.State() == StateOpen
}

// Alerts returns a copy of the alert log in arrival order.
func (s *Session) Alerts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Events returns the session's event subscription. It is closed when the
// session closes.
func (s *Session) Events() *bus.EventBus {
	return s.events
}

// Done is closed once the read loop has exited, once a Connect attempt has
// failed, or once a session that never connected is closed.
func (s *Session) Done() <-chan struct{} {
	return s.readDone
}

// SendChat sends msg if the session is open. Otherwise the message is
// dropped and SendChat returns false.
func (s *Session) SendChat(msg ChatMessage) bool {
	if err := s.send(msg); err != nil {
		logger.DebugCF("alarm", "Chat message dropped", map[string]any{
			"session": s.id,
			"error":   err.Error(),
		})
		return false
	}
	return true
}

func (s *Session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return ErrChannelUnavailable
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// Close ends the session. Pending outbound data is not flushed and
// outstanding location lookups are abandoned.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	if conn != nil && s.state == StateOpen {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}
	s.mu.Unlock()

	s.shutdown()

	// Connect cannot attach a connection once the session is Closed.
	s.mu.Lock()
	conn = s.conn
	s.mu.Unlock()
	if conn == nil {
		// No read loop will run.
		s.markDone()
		return nil
	}
	_ = conn.Close()
	return nil
}

// shutdown moves the session to Closed. Safe to call more than once.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()

		s.cancel()
		s.events.Close()
		logger.InfoCF("alarm", "WebSocket disconnected", map[string]any{"session": s.id})
	})
}

func (s *Session) markDone() {
	s.doneOnce.Do(func() { close(s.readDone) })
}

func (s *Session) readLoop() {
	defer s.markDone()
	defer func() {
		s.shutdown()
		s.conn.Close()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				s.ctx.Err() == nil {
				logger.WarnCF("alarm", "WebSocket read error", map[string]any{
					"session": s.id,
					"error":   err.Error(),
				})
			}
			return
		}
		s.handleFrame(data)
	}
}

func (s *Session) handleFrame(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type == "" {
		// The backend answers chat payloads with plain text.
		s.publish(bus.KindNotice, strings.TrimSpace(string(data)))
		return
	}

	switch frame.Type {
	case frameAlert:
		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		s.alerts = append(s.alerts, frame.Message)
		s.mu.Unlock()

		logger.InfoCF("alarm", "Alert received", map[string]any{"session": s.id, "message": frame.Message})
		s.publish(bus.KindAlert, frame.Message)

	case frameLocationRequest:
		s.requestLocation()
		s.publish(bus.KindLocationRequest, "")

	default:
		logger.DebugCF("alarm", "Ignoring unknown frame", map[string]any{"session": s.id, "type": frame.Type})
	}
}

func (s *Session) publish(kind bus.EventKind, message string) {
	ev := bus.Event{
		Kind:       kind,
		Message:    message,
		SessionID:  s.id,
		ReceivedAt: time.Now(),
	}
	if err := s.events.Publish(s.ctx, ev); err != nil {
		logger.DebugCF("alarm", "Event not delivered", map[string]any{"session": s.id, "error": err.Error()})
	}
}

// requestLocation starts a lookup unless one is already outstanding.
func (s *Session) requestLocation() {
	s.mu.Lock()
	if s.state != StateOpen || s.locating {
		s.mu.Unlock()
		return
	}
	s.locating = true
	s.mu.Unlock()

	// The lookup is abandoned, not canceled, when the session closes.
	ctx := context.WithoutCancel(s.ctx)
	var cancel context.CancelFunc = func() {}
	if s.locationTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.locationTimeout)
	}

	go func() {
		defer cancel()
		pos, err := s.locator.CurrentPosition(ctx)

		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			logger.DebugCF("alarm", "Late location result discarded", map[string]any{"session": s.id})
			return
		}
		s.locating = false
		s.mu.Unlock()

		if err != nil {
			logger.WarnCF("alarm", "Location access denied", map[string]any{
				"session": s.id,
				"error":   err.Error(),
			})
			return
		}

		reply := OutboundLocation{Type: frameLocation, Latitude: pos.Latitude, Longitude: pos.Longitude}
		if err := s.send(reply); err != nil {
			logger.DebugCF("alarm", "Location reply discarded", map[string]any{
				"session": s.id,
				"error":   err.Error(),
			})
			return
		}
		logger.DebugCF("alarm", "Location reply sent", map[string]any{"session": s.id})
	}()
}
