package client

import (
	"net/http"
	"sync"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/google/uuid"
)

var newRequestID = uuid.NewString

// authTransport decorates outgoing requests with the current bearer token,
// a request id and the JSON Accept header. A request that already carries an
// Authorization header keeps it.
type authTransport struct {
	base http.RoundTripper

	mu    sync.RWMutex
	token string
}

func newAuthTransport(base http.RoundTripper) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base}
}

func (t *authTransport) SetToken(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

func (t *authTransport) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	if r.Header.Get(common.RequestIDHeader) == "" {
		r.Header.Set(common.RequestIDHeader, newRequestID())
	}
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "application/json")
	}
	if r.Header.Get(common.AuthorizationHeader) == "" {
		if tok := t.Token(); tok != "" {
			r.Header.Set(common.AuthorizationHeader, common.BearerValue(tok))
		}
	}

	return t.base.RoundTrip(r)
}
