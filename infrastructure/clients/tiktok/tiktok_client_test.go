package tiktok

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(Config{
		ClientKey:     "key",
		ClientSecret:  "secret",
		RedirectURI:   "https://localhost/callback",
		Scopes:        []string{"user.info.basic", "video.publish"},
		TokenEndpoint: srv.URL,
		AuthEndpoint:  "https://www.tiktok.com/v2/auth/authorize/",
	}, srv.Client())
}

func TestRefreshAccessToken_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt-old", r.Form.Get("refresh_token"))
		assert.Equal(t, "key", r.Form.Get("client_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new","expires_in":86400,"open_id":"o1"}`))
	})

	tok, err := c.RefreshAccessToken(context.Background(), "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at-new", tok.AccessToken)
	assert.Equal(t, "rt-new", tok.RefreshToken)
	assert.Equal(t, int64(86400), tok.ExpiresIn)
}

func TestRefreshAccessToken_Revoked(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token is expired."}`))
	})

	_, err := c.RefreshAccessToken(context.Background(), "rt-dead")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRefreshTokenInvalid))
}

func TestRefreshAccessToken_RevokedByDescription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"access_denied","error_description":"token has been revoked by the user"}`))
	})

	_, err := c.RefreshAccessToken(context.Background(), "rt-dead")
	assert.True(t, errors.Is(err, ErrRefreshTokenInvalid))
}

func TestRefreshAccessToken_TransientFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"server_error","error_description":"try again later"}`))
	})

	_, err := c.RefreshAccessToken(context.Background(), "rt-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRefreshTokenInvalid))
}

func TestRefreshAccessToken_MissingClientConfig(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.RefreshAccessToken(context.Background(), "rt-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRefreshTokenInvalid))
}

func TestAuthorizeURL(t *testing.T) {
	c := NewClient(Config{
		ClientKey:    "key",
		RedirectURI:  "https://localhost/callback",
		Scopes:       []string{"user.info.basic", "video.publish"},
		AuthEndpoint: "https://www.tiktok.com/v2/auth/authorize/",
	})
	u := c.AuthorizeURL("state-1")
	assert.True(t, strings.HasPrefix(u, "https://www.tiktok.com/v2/auth/authorize/?"))
	assert.Contains(t, u, "client_key=key")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "response_type=code")
}
