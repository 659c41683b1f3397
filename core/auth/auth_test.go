package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"Audiotheque/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	iss := NewTokenIssuer("secret", time.Hour)

	raw, expires, err := iss.Issue("reader@example.com", "Reader", model.RolePrivileged)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "Reader", claims.DisplayName)
	assert.Equal(t, model.RolePrivileged, claims.Role)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	raw, _, err := NewTokenIssuer("one", time.Hour).Issue("a@example.com", "A", model.RoleStandard)
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).Parse(raw)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	iss := NewTokenIssuer("secret", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, _, err := iss.Issue("a@example.com", "A", model.RoleStandard)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Minute).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenIssuer("secret", time.Hour).Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newGoogleStub(t *testing.T, userinfo map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("grant_type") != "authorization_code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "at", "token_type": "Bearer"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(userinfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func stubClient(srv *httptest.Server) *GoogleClient {
	g := NewGoogleClient("id", "secret", "http://app/callback")
	g.TokenURL = srv.URL + "/token"
	g.UserinfoURL = srv.URL + "/userinfo"
	g.HTTPClient = srv.Client()
	return g
}

func TestGoogleClient_Exchange(t *testing.T) {
	srv := newGoogleStub(t, map[string]interface{}{"sub": "1", "email": " Someone@Example.com ", "name": "Some One"})
	g := stubClient(srv)

	id, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", id.Email)
	assert.Equal(t, "Some One", id.DisplayName)

	_, err = g.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGoogleClient_ExchangeMissingEmail(t *testing.T) {
	srv := newGoogleStub(t, map[string]interface{}{"sub": "1"})
	_, err := stubClient(srv).Exchange(context.Background(), "good-code")
	assert.Error(t, err)
}

func TestGoogleClient_NameFallsBackToEmail(t *testing.T) {
	srv := newGoogleStub(t, map[string]interface{}{"sub": "1", "email": "x@example.com"})
	id, err := stubClient(srv).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "x@example.com", id.DisplayName)
}

func TestGoogleClient_AuthCodeURL(t *testing.T) {
	g := NewGoogleClient("id", "secret", "http://app/callback")
	assert.True(t, g.Configured())

	u, err := url.Parse(g.AuthCodeURL("st4te"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "id", q.Get("client_id"))
	assert.Equal(t, "http://app/callback", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))

	assert.False(t, NewGoogleClient("", "", "").Configured())
}
