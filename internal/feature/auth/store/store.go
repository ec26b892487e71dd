// Package store holds the client-side authentication state and keeps the
// presence socket in step with it.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"chatapp/internal/feature/auth/client"
	"chatapp/internal/platform/realtime"
)

// OnlineUsersEvent is emitted by the server with the ids of connected users.
const OnlineUsersEvent = "getOnlineUsers"

const (
	msgSignedUp       = "Account created successfully"
	msgLoggedIn       = "Logged in successfully"
	msgLoggedOut      = "Logged out successfully"
	msgProfileUpdated = "Profile updated successfully"
)

// AuthAPI is the backend the store talks to.
type AuthAPI interface {
	CheckAuth(ctx context.Context) (*client.User, error)
	Signup(ctx context.Context, req client.SignupRequest) (*client.User, error)
	Login(ctx context.Context, req client.LoginRequest) (*client.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, req client.UpdateProfileRequest) (*client.User, error)
}

// Notifier shows transient toast-style messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Socket is the presence connection.
type Socket interface {
	On(event string, h realtime.Handler)
	Connect(ctx context.Context) error
	Connected() bool
	Disconnect() error
}

// SocketFactory builds an unconnected socket for userID.
type SocketFactory func(userID string) (Socket, error)

var (
	_ AuthAPI = (*client.Client)(nil)
	_ Socket  = (*realtime.Socket)(nil)
)

// State is a snapshot of the store.
type State struct {
	AuthUser          *client.User
	IsSigningUp       bool
	IsLoggingIn       bool
	IsUpdatingProfile bool
	IsCheckingAuth    bool
	// Error is the message of the last failed auth check, empty if none.
	Error       string
	OnlineUsers []string
}

func (s State) clone() State {
	if s.AuthUser != nil {
		u := *s.AuthUser
		s.AuthUser = &u
	}
	s.OnlineUsers = append([]string(nil), s.OnlineUsers...)
	return s
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is the auth state container. Actions never return errors: failures
// surface through the Notifier and, for CheckAuth, State.Error.
type Store struct {
	api       AuthAPI
	notifier  Notifier
	newSocket SocketFactory
	logger    *slog.Logger

	mu      sync.RWMutex
	state   State
	subs    map[int]func(State)
	nextSub int

	// connMu serializes socket connect and disconnect.
	connMu sync.Mutex
	socket Socket
}

// New builds a Store. IsCheckingAuth starts true until the first CheckAuth finishes.
func New(api AuthAPI, notifier Notifier, newSocket SocketFactory, opts ...Option) *Store {
	s := &Store{
		api:       api,
		notifier:  notifier,
		newSocket: newSocket,
		logger:    slog.Default(),
		state:     State{IsCheckingAuth: true, OnlineUsers: []string{}},
		subs:      make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe calls fn with the new state after every change, outside the
// store's lock. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SocketConnected reports whether a live presence socket is held.
func (s *Store) SocketConnected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.socket != nil && s.socket.Connected()
}

// Close disconnects the socket and drops all subscribers.
func (s *Store) Close() {
	s.disconnectSocket()
	s.mu.Lock()
	s.subs = make(map[int]func(State))
	s.mu.Unlock()
}

func (s *Store) set(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) handleError(action string, err error) string {
	msg := client.ErrorMessage(err)
	s.logger.Error(msg, "action", action, "error", err)
	s.notifier.Error(msg)
	return msg
}

func (s *Store) CheckAuth(ctx context.Context) {
	s.set(func(st *State) { st.IsCheckingAuth = true })
	defer s.set(func(st *State) { st.IsCheckingAuth = false })

	u, err := s.api.CheckAuth(ctx)
	if err != nil {
		msg := s.handleError("checkAuth", err)
		s.set(func(st *State) {
			st.AuthUser = nil
			st.Error = msg
		})
		return
	}
	s.set(func(st *State) { st.AuthUser = u })
	s.connectSocket(ctx)
}

func (s *Store) Signup(ctx context.Context, req client.SignupRequest) {
	s.set(func(st *State) { st.IsSigningUp = true })
	defer s.set(func(st *State) { st.IsSigningUp = false })

	u, err := s.api.Signup(ctx, req)
	if err != nil {
		s.handleError("signup", err)
		return
	}
	s.set(func(st *State) { st.AuthUser = u })
	s.notifier.Success(msgSignedUp)
	s.connectSocket(ctx)
}

func (s *Store) Login(ctx context.Context, req client.LoginRequest) {
	s.set(func(st *State) { st.IsLoggingIn = true })
	defer s.set(func(st *State) { st.IsLoggingIn = false })

	u, err := s.api.Login(ctx, req)
	if err != nil {
		s.handleError("login", err)
		return
	}
	s.set(func(st *State) { st.AuthUser = u })
	s.notifier.Success(msgLoggedIn)
	s.connectSocket(ctx)
}

// Logout has no busy flag.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.handleError("logout", err)
		return
	}
	s.set(func(st *State) { st.AuthUser = nil })
	s.notifier.Success(msgLoggedOut)
	s.disconnectSocket()
}

func (s *Store) UpdateProfile(ctx context.Context, req client.UpdateProfileRequest) {
	s.set(func(st *State) { st.IsUpdatingProfile = true })
	defer s.set(func(st *State) { st.IsUpdatingProfile = false })

	u, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		s.handleError("updateProfile", err)
		return
	}
	s.set(func(st *State) { st.AuthUser = u })
	s.notifier.Success(msgProfileUpdated)
}

func (s *Store) connectSocket(ctx context.Context) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	user := s.State().AuthUser
	if user == nil || (s.socket != nil && s.socket.Connected()) {
		return
	}

	sock, err := s.newSocket(user.ID)
	if err != nil {
		s.logger.Error("failed to create socket", "user_id", user.ID, "error", err)
		return
	}
	sock.On(OnlineUsersEvent, func(args []json.RawMessage) {
		var ids []string
		if len(args) == 0 {
			return
		}
		if err := json.Unmarshal(args[0], &ids); err != nil {
			s.logger.Warn("invalid online users payload", "error", err)
			return
		}
		s.set(func(st *State) { st.OnlineUsers = ids })
	})
	if err := sock.Connect(ctx); err != nil {
		s.logger.Error("failed to connect socket", "user_id", user.ID, "error", err)
		return
	}
	s.socket = sock
}

// disconnectSocket also drops a handle whose connection was already lost.
func (s *Store) disconnectSocket() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	sock := s.socket
	s.socket = nil
	if sock == nil || !sock.Connected() {
		return
	}
	if err := sock.Disconnect(); err != nil {
		s.logger.Warn("socket disconnect failed", "error", err)
	}
}
