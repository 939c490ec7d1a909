package testserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("s")
	tok, err := generateToken(42, secret, time.Minute)
	require.NoError(t, err)

	id, err := userIDFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = userIDFromToken(tok, []byte("other"))
	assert.Error(t, err)

	expired, err := generateToken(42, secret, -time.Minute)
	require.NoError(t, err)
	_, err = userIDFromToken(expired, secret)
	assert.Error(t, err)
}

func TestServer_LoginAndMe(t *testing.T) {
	s := New(t)
	s.AddUser("Ana", "ana@example.com", "secret")

	resp, err := http.Post(s.BaseURL()+"/users/login", "application/json",
		strings.NewReader(`{"email":"ana@example.com","senha":"secret"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)

	req, _ := http.NewRequest(http.MethodGet, s.BaseURL()+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)

	s.Revoke(body.Token)
	me2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, me2.StatusCode)

	assert.Equal(t, 2, s.Count(http.MethodGet, "/auth/me"))
	assert.Equal(t, 1, s.Count(http.MethodPost, "/users/login"))
}

func TestServer_WrongPassword(t *testing.T) {
	s := New(t)
	s.AddUser("Ana", "ana@example.com", "secret")

	resp, err := http.Post(s.BaseURL()+"/users/login", "application/json",
		strings.NewReader(`{"email":"ana@example.com","senha":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
