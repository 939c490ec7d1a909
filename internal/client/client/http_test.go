package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu   sync.Mutex
	reqs []*http.Request
	body [][]byte
}

func (c *captured) last(t *testing.T) (*http.Request, []byte) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.reqs)
	return c.reqs[len(c.reqs)-1], c.body[len(c.body)-1]
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	rec := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, r)
		rec.body = append(rec.body, b)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestDo_AttachesBearerOnlyWhileTokenSet(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{}`)
	c := NewHTTPClient(srv.URL + "/api/")
	ctx := context.Background()

	_, err := c.Do(ctx, http.MethodGet, "/articles", nil, nil)
	require.NoError(t, err)
	r, _ := rec.last(t)
	assert.Empty(t, r.Header.Get("Authorization"))
	assert.Equal(t, "/api/articles", r.URL.Path)

	c.SetToken("t1")
	_, err = c.Do(ctx, http.MethodGet, "/articles", nil, nil)
	require.NoError(t, err)
	r, _ = rec.last(t)
	assert.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
	assert.Equal(t, "t1", c.Token())

	c.ClearToken()
	_, err = c.Do(ctx, http.MethodGet, "/articles", nil, nil)
	require.NoError(t, err)
	r, _ = rec.last(t)
	assert.Empty(t, r.Header.Get("Authorization"))
}

func TestDo_SetsRequestIDAndAccept(t *testing.T) {
	orig := newRequestID
	newRequestID = func() string { return "req-1" }
	t.Cleanup(func() { newRequestID = orig })

	srv, rec := newServer(t, http.StatusOK, `{}`)
	c := NewHTTPClient(srv.URL)

	_, err := c.Do(context.Background(), http.MethodGet, "/health", nil, nil)
	require.NoError(t, err)

	r, _ := rec.last(t)
	assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
}

func TestDo_ExplicitAuthorizationWins(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, ``)
	c := NewHTTPClient(srv.URL)
	c.SetToken("current")

	require.NoError(t, c.Logout(context.Background(), "old"))

	r, _ := rec.last(t)
	assert.Equal(t, "Bearer old", r.Header.Get("Authorization"))
	assert.Equal(t, "/auth/logout", r.URL.Path)
}

func TestDo_JSONBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"token":"abc","user":{"id":1,"nome":"Ana","email":"a@b.com"}}`)
	c := NewHTTPClient(srv.URL)

	resp, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, int64(1), resp.User.ID)

	r, body := rec.last(t)
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"email":"a@b.com","senha":"pw"}`, string(body))
}

func TestDo_HTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		target  error
		message string
	}{
		{name: "401", status: 401, reply: `{"message":"Credenciais inválidas"}`, target: ErrUnauthorized, message: "Credenciais inválidas"},
		{name: "403", status: 403, reply: `{"error":"forbidden"}`, target: ErrUnauthorized, message: "forbidden"},
		{name: "404", status: 404, reply: `not json`, target: ErrNotFound, message: "Not Found"},
		{name: "503", status: 503, reply: ``, target: ErrUnavailable, message: "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.reply)
			c := NewHTTPClient(srv.URL)

			_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var he *HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.status, he.Status)
			assert.Equal(t, tt.message, he.Message)
		})
	}
}

func TestDo_500IsPlainHTTPError(t *testing.T) {
	srv, _ := newServer(t, 500, `{"message":"boom"}`)
	_, err := NewHTTPClient(srv.URL).Do(context.Background(), http.MethodGet, "/x", nil, nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.EqualError(t, err, "http 500: boom")
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url).Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "GET /x", te.Op)
}

func TestDo_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPClient(srv.URL, WithTimeout(50*time.Millisecond)).Do(context.Background(), http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_CancelledContext(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPClient(srv.URL).Do(ctx, http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrUnavailable)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithBaseTransport_IsWrapped(t *testing.T) {
	var seen *http.Request
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{StatusCode: 200, Body: io.NopCloser(http.NoBody), Header: http.Header{}}, nil
	})

	c := NewHTTPClient("http://backend.invalid", WithBaseTransport(rt))
	c.SetToken("tok")
	require.NoError(t, c.Ping(context.Background()))

	require.NotNil(t, seen)
	assert.Equal(t, "Bearer tok", seen.Header.Get("Authorization"))
}

func TestDecodeMe(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  int64
		wantErr bool
	}{
		{name: "envelope", body: `{"user":{"id":5,"nome":"Ana","email":"a@b.com"}}`, wantID: 5},
		{name: "bare", body: `{"id":6,"nome":"Bia","email":"b@b.com"}`, wantID: 6},
		{name: "null user", body: `{"user":null}`, wantErr: true},
		{name: "envelope without id", body: `{"user":{"nome":"x"}}`, wantErr: true},
		{name: "unrelated object", body: `{"ok":true}`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
		{name: "array", body: `[]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := decodeMe([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, u.ID)
		})
	}
}

func TestUpdateProfile_Multipart(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"message":"Perfil atualizado"}`)
	c := NewHTTPClient(srv.URL)

	name := "Ana Maria"
	msg, err := c.UpdateProfile(context.Background(), models.ProfileUpdate{
		Name:   &name,
		Avatar: &models.Upload{FileName: "a.png", Content: []byte("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Perfil atualizado", msg)

	r, body := rec.last(t)
	assert.Equal(t, http.MethodPut, r.Method)
	assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")
	assert.Contains(t, string(body), `name="nome"`)
	assert.Contains(t, string(body), "Ana Maria")
	assert.Contains(t, string(body), `filename="a.png"`)
	assert.NotContains(t, string(body), "removeAvatar")
}

func TestPublishArticle(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, `{"message":"ok","articleId":42}`)
	c := NewHTTPClient(srv.URL)

	res, err := c.PublishArticle(context.Background(), models.NewArticle{Title: "T", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.ArticleID)

	r, body := rec.last(t)
	assert.Equal(t, "/articles", r.URL.Path)
	assert.Contains(t, string(body), `name="titulo"`)
	assert.Contains(t, string(body), `name="conteudo"`)
}

func TestGetArticle_NotFound(t *testing.T) {
	srv, rec := newServer(t, http.StatusNotFound, `{"message":"Artigo não encontrado"}`)
	_, err := NewHTTPClient(srv.URL).GetArticle(context.Background(), 9)

	assert.ErrorIs(t, err, ErrNotFound)
	r, _ := rec.last(t)
	assert.Equal(t, "/articles/9", r.URL.Path)
}

func TestListArticles_Malformed(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"not":"an array"}`)
	_, err := NewHTTPClient(srv.URL).ListArticles(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
