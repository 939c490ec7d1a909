package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/client/client"
	"github.com/dmitrijs2005/gophblog/internal/client/credentials"
	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/logging"
)

const (
	DefaultTokenTTL      = 7 * 24 * time.Hour
	defaultLogoutTimeout = 3 * time.Second
)

// Manager is safe for concurrent use. Network calls run without holding the
// state lock; the resulting store write, credential update and state change
// happen together under it, so overlapping logins resolve last writer wins.
// A validation started before a Login or Logout is discarded when it
// completes after it.
type Manager struct {
	api    API
	cred   Credential
	store  TokenStore
	logger logging.Logger

	tokenTTL      time.Duration
	logoutTimeout time.Duration
	now           func() time.Time

	initOnce sync.Once
	ready    chan struct{}

	mu     sync.RWMutex
	status Status
	token  string
	user   *models.User
	subs   map[int]chan Snapshot
	nextID int
	closed bool
	// gen is bumped by Login and Logout.
	gen uint64

	wg sync.WaitGroup
}

type Option func(*Manager)

// WithTokenTTL sets how long a token persisted by Login stays valid locally.
func WithTokenTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.tokenTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogoutTimeout bounds the best-effort backend logout call.
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.logoutTimeout = d
		}
	}
}

func NewManager(api API, cred Credential, store TokenStore, logger logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Manager{
		api:           api,
		cred:          cred,
		store:         store,
		logger:        logger.With("component", "session"),
		tokenTTL:      DefaultTokenTTL,
		logoutTimeout: defaultLogoutTimeout,
		now:           time.Now,
		ready:         make(chan struct{}),
		status:        StatusUnknown,
		subs:          map[int]chan Snapshot{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Initialize restores the session from the persisted token. Only the first
// call does anything; it never fails; a token that cannot be validated is
// discarded and the session becomes anonymous.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer close(m.ready)

		m.mu.Lock()
		m.setLocked(StatusLoading, m.token, m.user)
		m.mu.Unlock()

		m.resolve(ctx, "initialize")
	})
}

// Ready is closed once the first Initialize has resolved.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// WaitReady blocks until Initialize has resolved or ctx is done.
func (m *Manager) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh re-validates the persisted token with the backend. Before the
// first Initialize it behaves as Initialize.
func (m *Manager) Refresh(ctx context.Context) {
	select {
	case <-m.ready:
	default:
		m.Initialize(ctx)
		return
	}
	m.resolve(ctx, "refresh")
}

func (m *Manager) resolve(ctx context.Context, op string) {
	m.mu.RLock()
	gen := m.gen
	m.mu.RUnlock()

	token, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Warn(ctx, "read persisted token failed", "op", op, "error", err)
		token = ""
	}

	if token == "" {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.superseded(ctx, op, gen) {
			return
		}
		m.cred.ClearToken()
		m.setLocked(StatusAnonymous, "", nil)
		return
	}

	if exp, ok := credentials.ExpiresAt(token); ok && !m.now().Before(exp) {
		m.invalidate(ctx, op, gen, ErrExpiredOrInvalidToken)
		return
	}

	m.mu.Lock()
	if m.superseded(ctx, op, gen) {
		m.mu.Unlock()
		return
	}
	m.cred.SetToken(token)
	m.mu.Unlock()

	user, err := m.api.Me(ctx)
	if err != nil {
		m.invalidate(ctx, op, gen, err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.superseded(ctx, op, gen) {
		return
	}
	m.cred.SetToken(token)
	m.setLocked(StatusAuthenticated, token, user.Clone())
}

// superseded reports whether a Login or Logout ran since gen was read. The
// caller holds m.mu.
func (m *Manager) superseded(ctx context.Context, op string, gen uint64) bool {
	if m.gen == gen {
		return false
	}
	m.logger.Debug(ctx, "stale token validation discarded", "op", op)
	return true
}

// invalidate drops the persisted token after a failed validation.
func (m *Manager) invalidate(ctx context.Context, op string, gen uint64, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.superseded(ctx, op, gen) {
		return
	}

	m.logger.Info(ctx, "persisted token rejected", "op", op, "reason", reason(cause), "error", cause)

	if err := m.store.Remove(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn(ctx, "remove persisted token failed", "error", err)
	}
	m.cred.ClearToken()
	m.setLocked(StatusAnonymous, "", nil)
}

func reason(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, ErrExpiredOrInvalidToken):
		return "expired_or_invalid"
	case errors.Is(err, client.ErrUnavailable):
		return "network"
	case errors.Is(err, client.ErrMalformedResponse):
		return "malformed"
	default:
		return "other"
	}
}

// Login authenticates with the backend and, on success, persists the token
// and publishes the authenticated state. On failure the state is untouched.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	resp, err := m.api.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return classifyLoginError(err)
	}
	if resp == nil || resp.Token == "" || resp.User == nil {
		return fmt.Errorf("login: %w: token or user missing", client.ErrMalformedResponse)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(context.WithoutCancel(ctx), resp.Token, m.tokenTTL); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	m.gen++
	m.cred.SetToken(resp.Token)
	m.setLocked(StatusAuthenticated, resp.Token, resp.User.Clone())
	return nil
}

func classifyLoginError(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	default:
		return fmt.Errorf("login: %w", err)
	}
}

// Logout forgets the session locally and tells the backend in the
// background. It cannot fail and may be called repeatedly.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.gen++
	if err := m.store.Remove(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn(ctx, "remove persisted token failed", "error", err)
	}
	m.cred.ClearToken()
	m.setLocked(StatusAnonymous, "", nil)

	notify := token != "" && !m.closed
	if notify {
		m.wg.Add(1)
	}
	m.mu.Unlock()

	if notify {
		go m.notifyLogout(context.WithoutCancel(ctx), token)
	}
}

func (m *Manager) notifyLogout(ctx context.Context, token string) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, m.logoutTimeout)
	defer cancel()

	if err := m.api.Logout(ctx, token); err != nil {
		m.logger.Debug(ctx, "backend logout failed", "error", err)
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// User returns a copy of the current user or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

func (m *Manager) IsAuthenticated() bool {
	return m.Status() == StatusAuthenticated
}

// Subscribe returns a channel receiving the current snapshot and then every
// state change. A slow reader only sees the latest pending snapshot. cancel
// closes the channel.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	ch <- m.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// Close waits for background logout calls and closes subscriber channels.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{Status: m.status, Token: m.token, User: m.user.Clone()}
}

// setLocked applies a new state and notifies subscribers if anything changed.
// m.mu must be held for writing.
func (m *Manager) setLocked(status Status, token string, user *models.User) {
	if status == m.status && token == m.token && sameUser(user, m.user) {
		return
	}
	m.status, m.token, m.user = status, token, user

	var uid int64
	if user != nil {
		uid = user.ID
	}
	m.logger.Info(context.Background(), "session state changed", "status", status, "user_id", uid)

	for _, ch := range m.subs {
		snap := m.snapshotLocked()
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func sameUser(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Name != b.Name || a.Email != b.Email {
		return false
	}
	if a.AvatarPath == nil || b.AvatarPath == nil {
		return a.AvatarPath == b.AvatarPath
	}
	return *a.AvatarPath == *b.AvatarPath
}
