// Package session owns the authentication lifecycle of the client: the
// current token and user, their persistence, and the bearer credential that
// the HTTP client attaches to outgoing requests.
//
// A Manager is created once at process start and shared by every consumer.
// Its state moves Unknown -> Loading -> {Authenticated, Anonymous} during
// Initialize and between Authenticated and Anonymous afterwards. Consumers
// either read a Snapshot or Subscribe to changes.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/client/models"
)

type Status string

const (
	StatusUnknown       Status = "unknown"
	StatusLoading       Status = "loading"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

func (s Status) String() string { return string(s) }

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetworkFailure is returned by Login when the backend could not be
	// reached. Login is not retried.
	ErrNetworkFailure = errors.New("network failure")

	// ErrExpiredOrInvalidToken describes a persisted token that failed
	// validation. It never escapes the manager: the session silently becomes
	// anonymous.
	ErrExpiredOrInvalidToken = errors.New("expired or invalid token")
)

// Snapshot is a point-in-time copy of the session. User never aliases the
// manager's state.
type Snapshot struct {
	Status Status
	Token  string
	User   *models.User
}

func (s Snapshot) IsAuthenticated() bool { return s.Status == StatusAuthenticated }

type Credentials struct {
	Email    string
	Password string
}

// API is the subset of the backend used by the manager.
type API interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context, token string) error
}

// Credential is the request-time bearer credential of the HTTP client.
type Credential interface {
	SetToken(token string)
	ClearToken()
}

// TokenStore persists the token across process restarts. Get returns "" when
// nothing (or nothing unexpired) is stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Remove(ctx context.Context) error
}
