package reddit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/wilbur/auth"
	"github.com/jrsteele09/wilbur/internal/config"
	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/reddit"
	"github.com/jrsteele09/wilbur/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type staticTokens string

func (s staticTokens) TokenSource(context.Context) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: string(s), TokenType: "bearer"})
}

// fakeRedditAPI records the forms posted to it.
type fakeRedditAPI struct {
	t           *testing.T
	server      *httptest.Server
	submits     atomic.Int32
	flairs      atomic.Int32
	mu          sync.Mutex
	submitForm  map[string]string
	flairForm   map[string]string
	flairStatus int
	submitBody  string
}

func newFakeRedditAPI(t *testing.T) *fakeRedditAPI {
	t.Helper()

	f := &fakeRedditAPI{
		t:           t,
		flairStatus: http.StatusOK,
		submitBody:  `{"json":{"errors":[],"data":{"id":"1abcde","name":"t3_1abcde","url":"https://www.reddit.com/r/test/comments/1abcde/"}}}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/submit", func(w http.ResponseWriter, r *http.Request) {
		f.submits.Add(1)
		assert.Equal(t, "Bearer reddit-at", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.submitForm = flatten(r)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.submitBody))
	})
	mux.HandleFunc("POST /api/selectflair", func(w http.ResponseWriter, r *http.Request) {
		f.flairs.Add(1)
		assert.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.flairForm = flatten(r)
		f.mu.Unlock()
		w.WriteHeader(f.flairStatus)
		_, _ = w.Write([]byte(`{"json":{"errors":[]}}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRedditAPI) lastSubmit() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitForm
}

func (f *fakeRedditAPI) lastFlair() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flairForm
}

func flatten(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	return out
}

func TestClient_SubmitSelfPost(t *testing.T) {
	api := newFakeRedditAPI(t)
	client := reddit.NewClient(api.server.URL, staticTokens("reddit-at"), api.server.Client())

	result, err := client.Submit(context.Background(), reddit.SelfPost{
		Subreddit: "r/test",
		Title:     "bob",
		Text:      "hello from discord",
		Flair:     "Discord",
	})
	require.NoError(t, err)
	require.Equal(t, "t3_1abcde", result.Name)
	require.Equal(t, "1abcde", result.ID)

	require.Equal(t, map[string]string{
		"api_type": "json",
		"kind":     "self",
		"sr":       "test",
		"title":    "bob",
		"text":     "hello from discord",
	}, api.lastSubmit())
	require.Equal(t, int32(1), api.flairs.Load())
	require.Equal(t, "t3_1abcde", api.lastFlair()["link"])
	require.Equal(t, "Discord", api.lastFlair()["text"])
}

func TestClient_SubmitLinkPost(t *testing.T) {
	api := newFakeRedditAPI(t)
	client := reddit.NewClient(api.server.URL, staticTokens("reddit-at"), api.server.Client())

	_, err := client.Submit(context.Background(), reddit.LinkPost{
		Subreddit: "test",
		Title:     "a link",
		URL:       "https://example.com/x",
	})
	require.NoError(t, err)
	require.Equal(t, "link", api.lastSubmit()["kind"])
	require.Equal(t, "https://example.com/x", api.lastSubmit()["url"])
	require.NotContains(t, api.lastSubmit(), "text")
	require.Zero(t, api.flairs.Load())
}

func TestClient_SubmitFlairFailureIsNotFatal(t *testing.T) {
	api := newFakeRedditAPI(t)
	api.flairStatus = http.StatusForbidden
	client := reddit.NewClient(api.server.URL, staticTokens("reddit-at"), api.server.Client())

	result, err := client.Submit(context.Background(), reddit.SelfPost{Subreddit: "test", Title: "t", Flair: "nope"})
	require.NoError(t, err)
	require.Equal(t, "t3_1abcde", result.Name)
	require.Equal(t, int32(1), api.flairs.Load())
}

func TestClient_SubmitRejected(t *testing.T) {
	api := newFakeRedditAPI(t)
	api.submitBody = `{"json":{"errors":[["SUBREDDIT_NOEXIST","that subreddit doesn't exist","sr"]]}}`
	client := reddit.NewClient(api.server.URL, staticTokens("reddit-at"), api.server.Client())

	_, err := client.Submit(context.Background(), reddit.SelfPost{Subreddit: "nope", Title: "t", Flair: "x"})
	require.ErrorIs(t, err, apperrors.ErrUpstreamRequest)
	require.Contains(t, err.Error(), "SUBREDDIT_NOEXIST")
	require.Zero(t, api.flairs.Load())
}

func TestClient_SubmitValidation(t *testing.T) {
	api := newFakeRedditAPI(t)
	client := reddit.NewClient(api.server.URL, staticTokens("reddit-at"), api.server.Client())

	cases := map[string]reddit.Submission{
		"missing subreddit": reddit.SelfPost{Title: "t"},
		"missing title":     reddit.SelfPost{Subreddit: "test"},
		"relative url":      reddit.LinkPost{Subreddit: "test", Title: "t", URL: "/x"},
		"bad scheme":        reddit.LinkPost{Subreddit: "test", Title: "t", URL: "ftp://example.com"},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := client.Submit(context.Background(), s)
			require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		})
	}
	require.Zero(t, api.submits.Load())
}

func TestClient_SubmitTruncatesLongTitles(t *testing.T) {
	api := newFakeRedditAPI(t)
	client := reddit.NewClient(api.server.URL, staticTokens("reddit-at"), api.server.Client())

	_, err := client.Submit(context.Background(), reddit.SelfPost{Subreddit: "test", Title: strings.Repeat("x", 400)})
	require.NoError(t, err)
	require.LessOrEqual(t, len([]rune(api.lastSubmit()["title"])), reddit.MaxTitleLength)
}

func TestClient_SubmitWithoutLinkedAccount(t *testing.T) {
	api := newFakeRedditAPI(t)
	cfg := config.FromEnvVars(config.EnvVars{RedditBaseURL: api.server.URL})
	tokens := auth.NewClient(cfg, token.NewStore(token.Pair{}), auth.WithHTTPClient(api.server.Client()))
	client := reddit.NewClient(api.server.URL, tokens, api.server.Client())

	_, err := client.Submit(context.Background(), reddit.SelfPost{Subreddit: "test", Title: "t"})
	require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	require.Zero(t, api.submits.Load())
}

func TestClient_SubmitRefreshesExpiredToken(t *testing.T) {
	api := newFakeRedditAPI(t)
	var refreshes atomic.Int32
	tokenMux := http.NewServeMux()
	tokenMux.HandleFunc("POST /api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "reddit-at", "token_type": "bearer", "expires_in": 3600})
	})
	tokenServer := httptest.NewServer(tokenMux)
	t.Cleanup(tokenServer.Close)

	cfg := config.FromEnvVars(config.EnvVars{RedditBaseURL: tokenServer.URL, RedditClientID: "id", RedditClientSecret: "secret"})
	tokens := auth.NewClient(cfg, token.NewStore(token.Pair{RefreshToken: "loaded-rt"}), auth.WithHTTPClient(tokenServer.Client()))
	client := reddit.NewClient(api.server.URL, tokens, api.server.Client())

	_, err := client.Submit(context.Background(), reddit.SelfPost{Subreddit: "test", Title: "t"})
	require.NoError(t, err)
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, "loaded-rt", tokens.Store().Get().RefreshToken)
}
