package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophblog/internal/client/client"
	"github.com/dmitrijs2005/gophblog/internal/client/services"
	"github.com/dmitrijs2005/gophblog/internal/client/session"
	"github.com/dmitrijs2005/gophblog/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

func (a *App) readPassword(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for name, email and a confirmed password and creates the
// account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Enter password")
	if err != nil {
		return err
	}
	confirm, err := a.readPassword("Confirm password")
	if err != nil {
		return err
	}

	msg, err := a.accounts.Register(ctx, services.Registration{Name: name, Email: email, Password: password, Confirm: confirm})
	if err != nil {
		a.println("Registration failed:", userMessage(err))
		return err
	}

	a.println(orDefault(msg, "Registered."), "You can log in now.")
	return nil
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	if err := a.waitSession(ctx); err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Enter password")
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, session.Credentials{Email: email, Password: password}); err != nil {
		a.println("Login failed:", userMessage(err))
		return err
	}

	a.printf("Welcome, %s!\n", a.session.User().Name)
	return nil
}

// Logout ends the session locally. It never fails.
func (a *App) Logout(ctx context.Context) error {
	if err := a.waitSession(ctx); err != nil {
		return err
	}
	a.session.Logout(ctx)
	a.println("Logged out.")
	return nil
}

// Whoami prints the current user.
func (a *App) Whoami(ctx context.Context) error {
	if err := a.waitSession(ctx); err != nil {
		return err
	}
	u := a.session.User()
	if u == nil {
		a.println("Not logged in.")
		return nil
	}
	a.printf("%s <%s> (id %d)\n", u.Name, u.Email, u.ID)
	if avatar := u.AvatarURL(a.config.AssetsBaseURL); avatar != "" {
		a.printf("Avatar: %s\n", avatar)
	}
	return nil
}

// Refresh re-validates the stored token with the backend.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.waitSession(ctx); err != nil {
		return err
	}
	a.session.Refresh(ctx)
	a.printf("Session is %s.\n", a.session.Status())
	return nil
}

// ForgotPassword resets the password of an account directly.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Enter new password")
	if err != nil {
		return err
	}
	confirm, err := a.readPassword("Confirm new password")
	if err != nil {
		return err
	}

	msg, err := a.accounts.ForgotPassword(ctx, email, password, confirm)
	if err != nil {
		a.println("Password reset failed:", userMessage(err))
		return err
	}
	a.println(orDefault(msg, "Password changed."))
	return nil
}

// Ping checks that the backend is reachable.
func (a *App) Ping(ctx context.Context) error {
	if err := a.accounts.Ping(ctx); err != nil {
		a.println("Server unreachable:", userMessage(err))
		return err
	}
	a.println("Server is up.")
	return nil
}

// userMessage turns an error into text for the terminal.
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, session.ErrNetworkFailure):
		return "server unavailable, try again later"
	case errors.Is(err, services.ErrNotAuthenticated):
		return "you need to log in first"
	case errors.Is(err, services.ErrPasswordMismatch):
		return "passwords do not match"
	case errors.Is(err, services.ErrNoChanges):
		return "no changes detected"
	}

	var he *client.HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	if errors.Is(err, client.ErrUnavailable) {
		return "server unavailable, try again later"
	}
	return err.Error()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
