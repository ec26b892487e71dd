package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"chatapp/internal/feature/auth/client"
	"chatapp/internal/feature/auth/store"
)

// authStore is the part of *store.Store the shell drives.
type authStore interface {
	State() store.State
	CheckAuth(ctx context.Context)
	Signup(ctx context.Context, req client.SignupRequest)
	Login(ctx context.Context, req client.LoginRequest)
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, req client.UpdateProfileRequest)
}

const helpText = `commands:
  signup <email> <password> <full name>
  login <email> <password>
  check
  logout
  profile pic|name|phone <value>
  whoami
  online
  help
  quit
`

type shell struct {
	store authStore
	in    io.Reader
	out   io.Writer
}

func newShell(s authStore, in io.Reader, out io.Writer) *shell {
	return &shell{store: s, in: in, out: out}
}

// run reads commands until quit, EOF or ctx is done.
func (sh *shell) run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(sh.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		sh.printf("> ")
		select {
		case <-ctx.Done():
			sh.printf("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := sh.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return true
	case "help":
		sh.printf("%s", helpText)
	case "signup":
		if len(args) < 3 {
			sh.printf("usage: signup <email> <password> <full name>\n")
			return false
		}
		sh.store.Signup(ctx, client.SignupRequest{
			Email:    args[0],
			Password: args[1],
			FullName: strings.Join(args[2:], " "),
		})
	case "login":
		if len(args) != 2 {
			sh.printf("usage: login <email> <password>\n")
			return false
		}
		sh.store.Login(ctx, client.LoginRequest{Email: args[0], Password: args[1]})
	case "check":
		sh.store.CheckAuth(ctx)
		if st := sh.store.State(); st.AuthUser == nil {
			sh.printf("not authenticated: %s\n", st.Error)
		} else {
			sh.printUser(st.AuthUser)
		}
	case "logout":
		sh.store.Logout(ctx)
	case "profile":
		req, err := parseProfile(args)
		if err != nil {
			sh.printf("%v\n", err)
			return false
		}
		sh.store.UpdateProfile(ctx, req)
	case "whoami":
		if u := sh.store.State().AuthUser; u != nil {
			sh.printUser(u)
		} else {
			sh.printf("not logged in\n")
		}
	case "online":
		ids := sh.store.State().OnlineUsers
		sh.printf("online (%d): %s\n", len(ids), strings.Join(ids, ", "))
	default:
		sh.printf("unknown command %q (try help)\n", cmd)
	}
	return false
}

func parseProfile(args []string) (client.UpdateProfileRequest, error) {
	var req client.UpdateProfileRequest
	if len(args) < 2 {
		return req, fmt.Errorf("usage: profile pic|name|phone <value>")
	}
	value := strings.Join(args[1:], " ")
	switch args[0] {
	case "pic":
		req.ProfilePic = &value
	case "name":
		req.FullName = &value
	case "phone":
		req.PhoneNumber = &value
	default:
		return req, fmt.Errorf("unknown profile field %q", args[0])
	}
	return req, nil
}

func (sh *shell) printUser(u *client.User) {
	sh.printf("%s <%s> id=%s", u.FullName, u.Email, u.ID)
	if u.ProfilePic != "" {
		sh.printf(" pic=%s", u.ProfilePic)
	}
	if u.PhoneNumber != "" {
		sh.printf(" phone=%s", u.PhoneNumber)
	}
	sh.printf("\n")
}

func (sh *shell) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(sh.out, format, a...)
}
