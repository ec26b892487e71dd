// Package realtime is a minimal socket.io v4 client over the Engine.IO v4
// websocket transport. It supports the main namespace, server-to-client
// events and client emits without acks.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrNotConnected is returned by Emit before Connect or after Disconnect.
	ErrNotConnected = errors.New("socket not connected")
	// ErrAlreadyConnected is returned by Connect on a live socket.
	ErrAlreadyConnected = errors.New("socket already connected")
)

// ConnectError is the server's refusal of the namespace connection ("44").
type ConnectError struct {
	Message string
}

func (e *ConnectError) Error() string {
	return "socket.io connect error: " + e.Message
}

// Handler receives the arguments of an event, one raw JSON value each.
type Handler func(args []json.RawMessage)

// Option configures a Socket.
type Option func(*Socket)

// WithQuery adds a query parameter to the handshake URL (e.g. userId).
func WithQuery(key, value string) Option {
	return func(s *Socket) { s.query.Set(key, value) }
}

// WithPath overrides the server path. Default "/socket.io/".
func WithPath(path string) Option {
	return func(s *Socket) { s.path = path }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Socket) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Socket) {
		if d != nil {
			s.dialer = d
		}
	}
}

// Socket is one socket.io connection. The zero value is not usable; use New.
type Socket struct {
	baseURL string
	path    string
	query   url.Values
	logger  *slog.Logger
	dialer  *websocket.Dialer

	mu        sync.RWMutex
	handlers  map[string][]Handler
	conn      *websocket.Conn
	sid       string
	connected bool
	closing   bool
	done      chan struct{}

	writeMu sync.Mutex
}

// New returns an unconnected socket for the server at baseURL
// (http, https, ws or wss).
func New(baseURL string, opts ...Option) *Socket {
	s := &Socket{
		baseURL:  baseURL,
		path:     "/socket.io/",
		query:    url.Values{},
		logger:   slog.Default(),
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string][]Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// On registers h for event. Handlers run on the read goroutine in
// registration order and must not block.
func (s *Socket) On(event string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], h)
}

// Connected reports whether the namespace connection is live.
func (s *Socket) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// ID returns the socket.io session id, empty when not connected.
func (s *Socket) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sid
}

// Done is closed when the read loop of the current connection exits.
func (s *Socket) Done() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}

func (s *Socket) endpoint() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Trim(s.path, "/") + "/"

	q := url.Values{}
	for k, v := range s.query {
		q[k] = v
	}
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the server, completes the Engine.IO handshake and joins the
// main namespace. ctx bounds the handshake only.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.mu.Unlock()

	endpoint, err := s.endpoint()
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}

	h, sid, err := s.handshake(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.conn = conn
	s.sid = sid
	s.connected = true
	s.closing = false
	s.done = done
	s.mu.Unlock()

	s.logger.Debug("socket connected", "sid", sid, "ping_interval_ms", h.PingInterval)

	timeout := time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
	go s.readLoop(conn, timeout, done)
	return nil
}

func (s *Socket) handshake(ctx context.Context, conn *websocket.Conn) (handshake, string, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(20 * time.Second)
	}
	_ = conn.SetReadDeadline(deadline)
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return handshake{}, "", fmt.Errorf("read open packet: %w", err)
	}
	h, err := parseHandshake(string(msg))
	if err != nil {
		return handshake{}, "", err
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte{eioMessage, sioConnect}); err != nil {
		return handshake{}, "", fmt.Errorf("send connect: %w", err)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return handshake{}, "", fmt.Errorf("read connect ack: %w", err)
		}
		if len(msg) == 0 {
			continue
		}
		switch msg[0] {
		case eioPing:
			if err := conn.WriteMessage(websocket.TextMessage, []byte{eioPong}); err != nil {
				return handshake{}, "", fmt.Errorf("send pong: %w", err)
			}
			continue
		case eioClose:
			return handshake{}, "", errors.New("server closed during handshake")
		case eioMessage:
		default:
			continue
		}

		p, err := decodeSocketPacket(string(msg[1:]))
		if err != nil {
			return handshake{}, "", err
		}
		var ack connectAck
		if p.Data != "" {
			_ = json.Unmarshal([]byte(p.Data), &ack)
		}
		switch p.Type {
		case sioConnect:
			if ack.SID == "" {
				ack.SID = h.SID
			}
			return h, ack.SID, nil
		case sioConnectError:
			return handshake{}, "", &ConnectError{Message: ack.Message}
		}
	}
}

func (s *Socket) readLoop(conn *websocket.Conn, timeout time.Duration, done chan struct{}) {
	defer close(done)
	defer s.teardown(conn)

	for {
		if timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(timeout))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			s.mu.RLock()
			closing := s.closing
			s.mu.RUnlock()
			if !closing {
				s.logger.Warn("socket read failed", "error", err)
			}
			return
		}
		if len(msg) == 0 {
			continue
		}

		switch msg[0] {
		case eioPing:
			if err := s.write(conn, []byte{eioPong}); err != nil {
				s.logger.Warn("socket pong failed", "error", err)
				return
			}
		case eioClose:
			s.logger.Debug("socket closed by server")
			return
		case eioMessage:
			if !s.handleMessage(string(msg[1:])) {
				return
			}
		case eioNoop:
		default:
			s.logger.Debug("unhandled engine.io packet", "type", string(msg[0]))
		}
	}
}

// handleMessage returns false when the server ended the namespace session.
func (s *Socket) handleMessage(raw string) bool {
	p, err := decodeSocketPacket(raw)
	if err != nil {
		s.logger.Warn("socket packet dropped", "error", err)
		return true
	}
	switch p.Type {
	case sioEvent:
		name, args, err := decodeEvent(p.Data)
		if err != nil {
			s.logger.Warn("socket event dropped", "error", err)
			return true
		}
		s.dispatch(name, args)
	case sioDisconnect:
		s.logger.Debug("socket disconnected by server")
		return false
	case sioConnect, sioAck:
	default:
		s.logger.Debug("unhandled socket.io packet", "type", string(p.Type))
	}
	return true
}

func (s *Socket) dispatch(event string, args []json.RawMessage) {
	s.mu.RLock()
	hs := append([]Handler(nil), s.handlers[event]...)
	s.mu.RUnlock()
	for _, h := range hs {
		h(args)
	}
}

func (s *Socket) teardown(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		s.sid = ""
		s.connected = false
	}
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Socket) write(conn *websocket.Conn, b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Emit sends an event to the server.
func (s *Socket) Emit(event string, args ...any) error {
	s.mu.RLock()
	conn, connected := s.conn, s.connected
	s.mu.RUnlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}
	pkt, err := encodeEvent(event, args...)
	if err != nil {
		return err
	}
	return s.write(conn, []byte(pkt))
}

// Disconnect leaves the namespace, closes the transport and waits for the
// read loop to exit. It is a no-op when not connected.
func (s *Socket) Disconnect() error {
	s.mu.Lock()
	conn, done := s.conn, s.done
	if !s.connected || conn == nil {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	err := s.write(conn, []byte{eioMessage, sioDisconnect})
	_ = conn.Close()
	<-done
	if err != nil {
		return fmt.Errorf("send disconnect: %w", err)
	}
	return nil
}
