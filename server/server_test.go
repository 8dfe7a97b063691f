package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/wilbur/auth"
	"github.com/jrsteele09/wilbur/internal/config"
	"github.com/jrsteele09/wilbur/oauthmodel"
	"github.com/jrsteele09/wilbur/server"
	"github.com/jrsteele09/wilbur/server/authflowrepo"
	"github.com/jrsteele09/wilbur/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testInitiator = "user123"
	testFlowTTL   = 10 * time.Minute
)

// fakeOAuth records exchanges and fails on demand.
type fakeOAuth struct {
	discordCalls atomic.Int32
	redditCalls  atomic.Int32
	discordErr   error
	redditErr    error
	store        *token.Store
}

func (f *fakeOAuth) BuildDiscordAuthURL(state string) string {
	return "https://discord.test/oauth2/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) BuildRedditAuthURL(state string) string {
	return "https://reddit.test/api/v1/authorize?duration=permanent&state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) ExchangeDiscordCode(_ context.Context, code string) (*oauthmodel.DiscordIdentity, error) {
	f.discordCalls.Add(1)
	if f.discordErr != nil {
		return nil, f.discordErr
	}
	return &oauthmodel.DiscordIdentity{ID: "42", Username: "bob"}, nil
}

func (f *fakeOAuth) ExchangeRedditCode(_ context.Context, code string) (token.Pair, error) {
	f.redditCalls.Add(1)
	if f.redditErr != nil {
		return token.Pair{}, f.redditErr
	}
	pair := token.Pair{AccessToken: "fake-access-token", RefreshToken: "fake-refresh-token", Scope: "submit read identity", ExpiresAt: time.Now().Add(time.Hour)}
	f.store.Set(pair)
	return pair, nil
}

func testConfig() config.Config {
	return config.FromEnvVars(config.EnvVars{
		AppName:      "Wilbur",
		Env:          "TEST",
		CallbackHost: "127.0.0.1",
		CallbackPort: 0,
	})
}

func newTestServer(t *testing.T, oauth server.OAuthClient) (*server.Server, *authflowrepo.InMemoryRepo) {
	t.Helper()

	flows := authflowrepo.NewInMemoryRepo(testFlowTTL, 32)
	s, err := server.New(testConfig(), flows, oauth)
	require.NoError(t, err)
	return s, flows
}

func stateFromURL(t *testing.T, raw string) string {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func get(s http.Handler, path string, query url.Values) *httptest.ResponseRecorder {
	target := path
	if query != nil {
		target += "?" + query.Encode()
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_FullLinkingFlow(t *testing.T) {
	oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
	s, flows := newTestServer(t, oauth)

	authURL, err := s.GenerateAuthURL(testInitiator)
	require.NoError(t, err)
	state := stateFromURL(t, authURL)
	require.NotContains(t, state, testInitiator)

	rec := get(s, server.RouteDiscordCallback, url.Values{"code": {"dcode"}, "state": {state}})
	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "https://reddit.test/api/v1/authorize"))
	require.Equal(t, state, stateFromURL(t, location))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	flow, err := flows.Get(state)
	require.NoError(t, err)
	require.Equal(t, oauthmodel.AwaitingRedditCallback, flow.Step)

	rec = get(s, server.RouteRedditCallback, url.Values{"code": {"rcode"}, "state": {state}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Authentication Successful")
	require.NotContains(t, rec.Body.String(), "fake-access-token")
	require.NotContains(t, rec.Body.String(), "fake-refresh-token")

	require.Equal(t, "fake-access-token", oauth.store.Get().AccessToken)
	require.Equal(t, 0, flows.Len())
}

func TestServer_DiscordCallback(t *testing.T) {
	t.Run("provider error leaves the flow untouched", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
		s, flows := newTestServer(t, oauth)
		state := stateFromURL(t, mustAuthURL(t, s))

		rec := get(s, server.RouteDiscordCallback, url.Values{"error": {"access_denied"}, "state": {state}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Discord authentication failed")

		flow, err := flows.Get(state)
		require.NoError(t, err)
		require.Equal(t, oauthmodel.AwaitingDiscordCallback, flow.Step)
		require.Zero(t, oauth.discordCalls.Load())
	})

	t.Run("missing parameters", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
		s, _ := newTestServer(t, oauth)

		for _, q := range []url.Values{nil, {"code": {"c"}}, {"state": {"s"}}} {
			rec := get(s, server.RouteDiscordCallback, q)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), "Missing code or state parameter")
		}
		require.Zero(t, oauth.discordCalls.Load())
	})

	t.Run("unknown state", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
		s, _ := newTestServer(t, oauth)

		rec := get(s, server.RouteDiscordCallback, url.Values{"code": {"c"}, "state": {"forged"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid or expired state")
		require.Zero(t, oauth.discordCalls.Load())
	})

	t.Run("expired state", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		now := start
		authflowrepo.NowTimeFunc = func() time.Time { return now }
		t.Cleanup(func() { authflowrepo.NowTimeFunc = time.Now })

		oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
		s, _ := newTestServer(t, oauth)
		state := stateFromURL(t, mustAuthURL(t, s))

		now = start.Add(testFlowTTL + time.Second)
		rec := get(s, server.RouteDiscordCallback, url.Values{"code": {"c"}, "state": {state}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Zero(t, oauth.discordCalls.Load())
	})

	t.Run("replayed callback is rejected", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
		s, flows := newTestServer(t, oauth)
		state := stateFromURL(t, mustAuthURL(t, s))

		q := url.Values{"code": {"c"}, "state": {state}}
		require.Equal(t, http.StatusFound, get(s, server.RouteDiscordCallback, q).Code)
		flow, err := flows.Get(state)
		require.NoError(t, err)
		require.Equal(t, oauthmodel.AwaitingRedditCallback, flow.Step)

		require.Equal(t, http.StatusBadRequest, get(s, server.RouteDiscordCallback, q).Code)
		require.Equal(t, int32(1), oauth.discordCalls.Load())
	})

	t.Run("exchange failure consumes the flow", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{}), discordErr: errors.New("boom")}
		s, flows := newTestServer(t, oauth)
		state := stateFromURL(t, mustAuthURL(t, s))

		rec := get(s, server.RouteDiscordCallback, url.Values{"code": {"c"}, "state": {state}})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "Failed to authenticate with Discord")
		require.Equal(t, 0, flows.Len())
	})
}

func TestServer_RedditCallback(t *testing.T) {
	t.Run("state still awaiting discord is rejected", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
		s, flows := newTestServer(t, oauth)
		state := stateFromURL(t, mustAuthURL(t, s))

		rec := get(s, server.RouteRedditCallback, url.Values{"code": {"c"}, "state": {state}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, 1, flows.Len())
		require.Zero(t, oauth.redditCalls.Load())
	})

	t.Run("unknown state does not touch the store", func(t *testing.T) {
		initial := token.Pair{AccessToken: "old", RefreshToken: "old-rt"}
		oauth := &fakeOAuth{store: token.NewStore(initial)}
		s, _ := newTestServer(t, oauth)

		rec := get(s, server.RouteRedditCallback, url.Values{"code": {"c"}, "state": {"forged"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, initial, oauth.store.Get())
	})

	t.Run("provider error", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{})}
		s, _ := newTestServer(t, oauth)

		rec := get(s, server.RouteRedditCallback, url.Values{"error": {"access_denied"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Reddit authentication failed")
	})

	t.Run("exchange failure still consumes the flow", func(t *testing.T) {
		oauth := &fakeOAuth{store: token.NewStore(token.Pair{}), redditErr: errors.New("boom")}
		s, flows := newTestServer(t, oauth)
		state := stateFromURL(t, mustAuthURL(t, s))
		_, err := flows.Advance(state)
		require.NoError(t, err)

		q := url.Values{"code": {"c"}, "state": {state}}
		rec := get(s, server.RouteRedditCallback, q)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "Failed to authenticate with Reddit")
		require.Equal(t, 0, flows.Len())

		require.Equal(t, http.StatusBadRequest, get(s, server.RouteRedditCallback, q).Code)
		require.Equal(t, int32(1), oauth.redditCalls.Load())
	})
}

func TestServer_IndexAndNotFound(t *testing.T) {
	s, _ := newTestServer(t, &fakeOAuth{store: token.NewStore(token.Pair{})})

	rec := get(s, server.RouteIndex, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Wilbur OAuth Server")
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = get(s, "/elsewhere", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RecoverMiddleware(t *testing.T) {
	s, _ := newTestServer(t, &fakeOAuth{store: token.NewStore(token.Pair{})})
	serve := func(h http.HandlerFunc) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		server.ChainMiddleware(h, s.HTMLMiddleWare()...)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec
	}

	t.Run("panic before writing renders the error page", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "Internal Server Error")
		require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	})

	t.Run("panic after writing keeps the committed response", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("partial"))
			panic("boom")
		})
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Equal(t, "partial", rec.Body.String())
	})

	t.Run("panic after an implicit 200 keeps the body clean", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
			panic("boom")
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", rec.Body.String())
	})
}

func TestServer_StartStop(t *testing.T) {
	s, flows := newTestServer(t, &fakeOAuth{store: token.NewStore(token.Pair{})})

	require.False(t, s.IsRunning())
	require.NoError(t, s.Stop(context.Background()))

	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	require.True(t, s.IsRunning())
	addr := s.Addr()

	// A second Start must not rebind
	require.NoError(t, s.Start())
	require.Equal(t, addr, s.Addr())

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = s.GenerateAuthURL(testInitiator)
	require.NoError(t, err)
	require.Equal(t, 1, flows.Len())

	require.NoError(t, s.Stop(context.Background()))
	require.False(t, s.IsRunning())
	require.Equal(t, 0, flows.Len())
}

func mustAuthURL(t *testing.T, s *server.Server) string {
	t.Helper()

	authURL, err := s.GenerateAuthURL(testInitiator)
	require.NoError(t, err)
	return authURL
}

// TestServer_LinkingAgainstUpstream drives the callback server with the real
// OAuth client against a stand-in for both providers.
func TestServer_LinkingAgainstUpstream(t *testing.T) {
	upstream := http.NewServeMux()
	upstream.HandleFunc("POST /api/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "dcode", r.PostForm.Get("code"))
		writeJSON(w, map[string]any{"access_token": "discord-at", "token_type": "Bearer", "expires_in": 604800})
	})
	upstream.HandleFunc("GET /api/users/@me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer discord-at", r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{"id": "42", "username": "bob", "discriminator": "0"})
	})
	upstream.HandleFunc("POST /api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "reddit-client", user)
		assert.Equal(t, "reddit-secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "rcode", r.PostForm.Get("code"))
		writeJSON(w, map[string]any{
			"access_token":  "reddit-at",
			"refresh_token": "reddit-rt",
			"token_type":    "bearer",
			"expires_in":    3600,
			"scope":         "submit read identity",
		})
	})
	fake := httptest.NewServer(upstream)
	t.Cleanup(fake.Close)

	cfg := config.FromEnvVars(config.EnvVars{
		AppName:                  "Wilbur",
		Env:                      "TEST",
		CallbackHost:             "127.0.0.1",
		DiscordOAuthClientID:     "discord-client",
		DiscordOAuthClientSecret: "discord-secret",
		DiscordOAuthRedirectURI:  "http://localhost:3000/auth/discord/callback",
		DiscordAPIBaseURL:        fake.URL + "/api",
		RedditClientID:           "reddit-client",
		RedditClientSecret:       "reddit-secret",
		RedditRedirectURI:        "http://localhost:3000/auth/reddit/callback",
		RedditBaseURL:            fake.URL,
		RedditUserAgent:          "DiscordBot:Wilbur:test",
	})
	store := token.NewStore(token.Pair{})
	client := auth.NewClient(cfg, store, auth.WithHTTPClient(fake.Client()))

	flows := authflowrepo.NewInMemoryRepo(testFlowTTL, 32)
	s, err := server.New(cfg, flows, client)
	require.NoError(t, err)

	state := stateFromURL(t, mustAuthURL(t, s))

	rec := get(s, server.RouteDiscordCallback, url.Values{"code": {"dcode"}, "state": {state}})
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), fake.URL+"/api/v1/authorize"))

	rec = get(s, server.RouteRedditCallback, url.Values{"code": {"rcode"}, "state": {state}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "reddit-at")
	require.NotContains(t, rec.Body.String(), "reddit-rt")

	pair := store.Get()
	require.Equal(t, "reddit-at", pair.AccessToken)
	require.Equal(t, "reddit-rt", pair.RefreshToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, time.Minute)

	_, err = flows.Get(state)
	require.Error(t, err)
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
