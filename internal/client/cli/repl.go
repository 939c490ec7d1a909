package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Refresh(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Articles(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Publish(ctx context.Context) error
	Ping(ctx context.Context) error
}

// runREPL reads commands line by line from r and dispatches them to a.
// The prompt shows statusFn(). Anonymous users get the account commands and
// the public feed; logged in users also get the profile and publishing
// commands.
//
// Errors returned by handlers are ignored here; handlers report them to the
// user themselves. The loop exits on EOF, "exit" or "quit".
//
// Commands prompt for their own input on the same reader, so the loop reads
// one line at a time instead of buffering ahead with a Scanner.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "gb %s> ", statusFn())
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: (l)ist, show [id], publish, profile, editprofile, whoami, refresh, ping, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, forgot, (l)ist, show [id], ping, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "forgot":
			_ = a.ForgotPassword(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "editprofile":
			_ = a.EditProfile(ctx)

		case "l", "list", "articles":
			_ = a.Articles(ctx)

		case "show":
			_ = a.Show(ctx, args)

		case "publish":
			_ = a.Publish(ctx)

		case "ping":
			_ = a.Ping(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
