package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/client/models"
)

type fakeAPI struct {
	mu sync.Mutex

	loginFn  func(ctx context.Context, email, password string) (*models.LoginResponse, error)
	meFn     func(ctx context.Context) (*models.User, error)
	logoutFn func(ctx context.Context, token string) error

	loginCalls   int
	meCalls      int
	logoutTokens []string
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.loginFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("login not configured")
	}
	return fn(ctx, email, password)
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	f.meCalls++
	fn := f.meFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("me not configured")
	}
	return fn(ctx)
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	f.logoutTokens = append(f.logoutTokens, token)
	fn := f.logoutFn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, token)
}

func (f *fakeAPI) counts() (login, me int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.meCalls
}

func (f *fakeAPI) loggedOut() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logoutTokens...)
}

type fakeCred struct {
	mu    sync.Mutex
	token string
}

func (c *fakeCred) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *fakeCred) ClearToken() { c.SetToken("") }

func (c *fakeCred) header() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return ""
	}
	return "Bearer " + c.token
}

type memStore struct {
	mu      sync.Mutex
	token   string
	ttl     time.Duration
	removes int

	getErr    error
	setErr    error
	removeErr error
}

func (s *memStore) Get(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.token, nil
}

func (s *memStore) Set(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.token, s.ttl = token, ttl
	return nil
}

func (s *memStore) Remove(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.removeErr != nil {
		return s.removeErr
	}
	s.token = ""
	return nil
}

func (s *memStore) value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}
