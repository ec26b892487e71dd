package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatapp/internal/feature/auth/client"
	"chatapp/internal/feature/auth/store"
)

// fakeStore はshellから呼ばれたアクションを記録します。
type fakeStore struct {
	state   store.State
	calls   []string
	signup  client.SignupRequest
	login   client.LoginRequest
	profile client.UpdateProfileRequest
}

func (f *fakeStore) State() store.State { return f.state }

func (f *fakeStore) CheckAuth(ctx context.Context) {
	f.calls = append(f.calls, "check")
	f.state.AuthUser = nil
	f.state.Error = "Unauthorized - No Token Provided"
}

func (f *fakeStore) Signup(ctx context.Context, req client.SignupRequest) {
	f.calls = append(f.calls, "signup")
	f.signup = req
}

func (f *fakeStore) Login(ctx context.Context, req client.LoginRequest) {
	f.calls = append(f.calls, "login")
	f.login = req
	f.state.AuthUser = &client.User{ID: "u-1", Email: req.Email, FullName: "A B"}
}

func (f *fakeStore) Logout(ctx context.Context) {
	f.calls = append(f.calls, "logout")
	f.state.AuthUser = nil
}

func (f *fakeStore) UpdateProfile(ctx context.Context, req client.UpdateProfileRequest) {
	f.calls = append(f.calls, "profile")
	f.profile = req
}

func runLines(t *testing.T, fs *fakeStore, input string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, newShell(fs, strings.NewReader(input), &out).run(context.Background()))
	return out.String()
}

func TestShell_Commands(t *testing.T) {
	t.Parallel()
	fs := &fakeStore{}

	out := runLines(t, fs, strings.Join([]string{
		"signup a@b.com secret1 A B",
		"login a@b.com secret1",
		"whoami",
		"profile pic https://cdn.example.com/a.png",
		"logout",
		"whoami",
		"quit",
		"login never@reached.com x",
	}, "\n"))

	assert.Equal(t, []string{"signup", "login", "profile", "logout"}, fs.calls)
	assert.Equal(t, client.SignupRequest{Email: "a@b.com", Password: "secret1", FullName: "A B"}, fs.signup)
	assert.Equal(t, "a@b.com", fs.login.Email)
	require.NotNil(t, fs.profile.ProfilePic)
	assert.Equal(t, "https://cdn.example.com/a.png", *fs.profile.ProfilePic)
	assert.Contains(t, out, "A B <a@b.com> id=u-1")
	assert.Contains(t, out, "not logged in")
}

func TestShell_Check(t *testing.T) {
	t.Parallel()
	fs := &fakeStore{}

	out := runLines(t, fs, "check\n")

	assert.Equal(t, []string{"check"}, fs.calls)
	assert.Contains(t, out, "not authenticated: Unauthorized - No Token Provided")
}

func TestShell_Online(t *testing.T) {
	t.Parallel()
	fs := &fakeStore{state: store.State{OnlineUsers: []string{"u1", "u2"}}}

	out := runLines(t, fs, "online\n")

	assert.Contains(t, out, "online (2): u1, u2")
}

func TestShell_Usage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{"signup missing name", "signup a@b.com secret1", "usage: signup"},
		{"login missing password", "login a@b.com", "usage: login"},
		{"profile unknown field", "profile age 3", `unknown profile field "age"`},
		{"profile missing value", "profile pic", "usage: profile"},
		{"unknown command", "dance", `unknown command "dance"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := &fakeStore{}
			out := runLines(t, fs, tt.line+"\n")
			assert.Contains(t, out, tt.want)
			assert.Empty(t, fs.calls)
		})
	}
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	req, err := parseProfile([]string{"name", "New", "Name"})
	require.NoError(t, err)
	require.NotNil(t, req.FullName)
	assert.Equal(t, "New Name", *req.FullName)
	assert.Nil(t, req.ProfilePic)

	req, err = parseProfile([]string{"phone", "+81-90-0000-0000"})
	require.NoError(t, err)
	require.NotNil(t, req.PhoneNumber)
	assert.Equal(t, "+81-90-0000-0000", *req.PhoneNumber)
}

func TestPresencePrinter(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	p := presencePrinter(&out)

	p(store.State{OnlineUsers: []string{}})
	p(store.State{OnlineUsers: []string{"u1", "u2"}})
	p(store.State{OnlineUsers: []string{"u1", "u2"}, IsLoggingIn: true})
	p(store.State{OnlineUsers: []string{"u2"}})

	assert.Equal(t, "online (2): u1, u2\nonline (1): u2\n", out.String())
}
