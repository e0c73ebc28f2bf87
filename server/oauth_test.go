package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	oauth2lib "golang.org/x/oauth2"

	nb "github.com/panyam/nodebird"
	"github.com/panyam/nodebird/config"
	"github.com/panyam/nodebird/oauth2"
	"github.com/panyam/nodebird/server"
)

// kakaoProvider fakes the token and user info endpoints of Kakao
func kakaoProvider(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "kakao_token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":         987654321,
			"properties": map[string]any{"nickname": "Kakao Friend"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newKakaoEnv(t *testing.T) *testEnv {
	provider := kakaoProvider(t)
	return newTestEnv(t, func(o *server.Options) {
		kakao := oauth2.NewKakaoOAuth2("kakao-id", "", "http://localhost/auth/kakao/callback",
			o.Users, oauth2.NewStateSigner("test-secret"))
		kakao.UserInfoURL = provider.URL + "/v2/user/me"
		kakao.Config().Endpoint = oauth2lib.Endpoint{
			AuthURL:   provider.URL + "/oauth/authorize",
			TokenURL:  provider.URL + "/token",
			AuthStyle: oauth2lib.AuthStyleInParams,
		}
		o.Strategies = append(o.Strategies, kakao)
	})
}

func TestKakaoLogin(t *testing.T) {
	env := newKakaoEnv(t)
	b := env.browser(t)

	assert.Contains(t, b.get("/").body, `href="/auth/kakao"`)

	resp := b.get("/auth/kakao")
	require.Equal(t, http.StatusFound, resp.status)
	assert.True(t, strings.Contains(resp.location, "/oauth/authorize"), resp.location)
	assert.Empty(t, b.sessionCookie(), "starting a login does not touch the session")

	redirect, err := url.Parse(resp.location)
	require.NoError(t, err)
	state := redirect.Query().Get("state")
	require.NotEmpty(t, state)

	resp = b.get("/auth/kakao/callback?code=abc&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/", resp.location)

	page := b.get("/")
	assert.Contains(t, page.body, "Hello, Kakao Friend")

	user, err := env.users.GetUserByProvider(t.Context(), nb.ProviderKakao, "987654321")
	require.NoError(t, err)
	assert.False(t, user.HasPassword())
}

func TestKakaoLoginFailure(t *testing.T) {
	env := newKakaoEnv(t)
	b := env.browser(t)

	b.get("/auth/kakao")
	resp := b.get("/auth/kakao/callback?code=abc&state=forged")
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/", resp.location)

	page := b.get("/")
	assert.Contains(t, page.body, `id="login-form"`)
	assert.Contains(t, page.body, oauth2.ReasonInvalidState)

	resp = b.get("/auth/kakao/callback?error=access_denied")
	assert.Equal(t, "/", resp.location)
	assert.Contains(t, b.get("/").body, oauth2.ReasonDenied)
}

func TestConfiguredProviderCallbackIsAbsolute(t *testing.T) {
	redirectURI := func(t *testing.T, env *testEnv, header http.Header) string {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/auth/kakao", nil)
		require.NoError(t, err)
		for k, v := range header {
			req.Header[k] = v
		}
		resp := env.browser(t).do(req)
		require.Equal(t, http.StatusFound, resp.status)
		location, err := url.Parse(resp.location)
		require.NoError(t, err)
		return location.Query().Get("redirect_uri")
	}

	t.Run("resolved against the request host", func(t *testing.T) {
		env := newTestEnv(t, func(o *server.Options) {
			o.Config.Kakao.ClientID = "kakao-id"
		})
		assert.Equal(t, env.server.URL+"/auth/kakao/callback", redirectURI(t, env, nil))
	})

	t.Run("behind a TLS proxy in production", func(t *testing.T) {
		env := newTestEnv(t, func(o *server.Options) {
			o.Config.Env = config.EnvProduction
			o.Config.Kakao.ClientID = "kakao-id"
		})
		got := redirectURI(t, env, http.Header{
			"X-Forwarded-Proto": {"https"},
			"X-Forwarded-Host":  {"nodebird.example"},
		})
		assert.Equal(t, "https://nodebird.example/auth/kakao/callback", got)
	})
}
