package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/wilbur/internal/config"
	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/internal/utils"
	"github.com/jrsteele09/wilbur/oauthmodel"
	"github.com/jrsteele09/wilbur/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// ClientConfig is the configuration the OAuth client reads.
type ClientConfig interface {
	config.DiscordConfig
	config.RedditConfig
	config.OAuthConfig
}

// Client performs the Discord and Reddit authorization code exchanges and the
// Reddit refresh. These are the only outbound calls carrying client secrets.
// Exchanges are never retried: authorization codes are one-shot.
type Client struct {
	discord       *oauth2.Config
	reddit        *oauth2.Config
	discordAPI    string
	redditScopes  string
	refreshBuffer time.Duration
	httpClient    *http.Client
	store         *token.Store

	refreshLock sync.Mutex
}

// ClientOption defines a function signature for Client's functional options.
type ClientOption func(*Client)

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates an OAuth client that writes exchanged tokens into store.
func NewClient(cfg ClientConfig, store *token.Store, options ...ClientOption) *Client {
	discordAPI := strings.TrimSuffix(cfg.GetDiscordAPIBaseURL(), "/")
	redditBase := strings.TrimSuffix(cfg.GetRedditBaseURL(), "/")

	c := &Client{
		discord: &oauth2.Config{
			ClientID:     cfg.GetDiscordOAuthClientID(),
			ClientSecret: cfg.GetDiscordOAuthClientSecret(),
			RedirectURL:  cfg.GetDiscordOAuthRedirectURI(),
			Scopes:       cfg.GetDiscordScopes(),
			Endpoint: oauth2.Endpoint{
				AuthURL:   discordAPI + "/oauth2/authorize",
				TokenURL:  discordAPI + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		reddit: &oauth2.Config{
			ClientID:     cfg.GetRedditClientID(),
			ClientSecret: cfg.GetRedditClientSecret(),
			RedirectURL:  cfg.GetRedditRedirectURI(),
			Endpoint: oauth2.Endpoint{
				AuthURL:   redditBase + "/api/v1/authorize",
				TokenURL:  redditBase + "/api/v1/access_token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		discordAPI:    discordAPI,
		redditScopes:  strings.Join(cfg.GetRedditScopes(), oauthmodel.RedditScopeSeparator),
		refreshBuffer: cfg.GetRefreshBuffer(),
		store:         store,
	}

	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg)
	}
	return c
}

// BuildDiscordAuthURL returns the Discord authorize URL carrying state.
func (c *Client) BuildDiscordAuthURL(state string) string {
	return c.discord.AuthCodeURL(state)
}

// BuildRedditAuthURL returns the Reddit authorize URL carrying state.
// duration=permanent makes Reddit issue a refresh token.
func (c *Client) BuildRedditAuthURL(state string) string {
	return c.reddit.AuthCodeURL(state,
		oauth2.SetAuthURLParam("duration", oauthmodel.DurationPermanent),
		oauth2.SetAuthURLParam("scope", c.redditScopes),
	)
}

// ExchangeDiscordCode trades a Discord code for a bearer token and fetches the
// profile of whoever authorised it. The Discord token itself is discarded.
func (c *Client) ExchangeDiscordCode(ctx context.Context, code string) (*oauthmodel.DiscordIdentity, error) {
	tok, err := c.discord.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, newUpstreamError(oauthmodel.ProviderDiscord, "token exchange", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.discordAPI+"/users/@me", nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[auth ExchangeDiscordCode] build profile request")
	}
	tok.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newUpstreamError(oauthmodel.ProviderDiscord, "profile fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, newUpstreamError(oauthmodel.ProviderDiscord, "profile fetch", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamAuthError{
			Provider:   oauthmodel.ProviderDiscord,
			Operation:  "profile fetch",
			StatusCode: resp.StatusCode,
			Body:       utils.Truncate(string(body), maxErrorBody),
		}
	}

	var identity oauthmodel.DiscordIdentity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, &UpstreamAuthError{
			Provider:   oauthmodel.ProviderDiscord,
			Operation:  "profile decode",
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	if identity.ID == "" {
		return nil, &UpstreamAuthError{
			Provider:   oauthmodel.ProviderDiscord,
			Operation:  "profile decode",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("profile has no id"),
		}
	}

	log.Info().Str("discord_user", identity.DisplayName()).Msg("Discord identity verified")
	return &identity, nil
}

// ExchangeRedditCode trades a Reddit code for a token pair and stores it.
func (c *Client) ExchangeRedditCode(ctx context.Context, code string) (token.Pair, error) {
	tok, err := c.reddit.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return token.Pair{}, newUpstreamError(oauthmodel.ProviderReddit, "token exchange", err)
	}

	pair := token.PairFromOAuth2(tok, token.Pair{})
	if !pair.HasRefreshToken() {
		log.Warn().Msg("Reddit issued no refresh token, access will lapse when the token expires")
	}
	c.store.Set(pair)

	log.Info().Time("expires_at", pair.ExpiresAt).Str("scope", pair.Scope).Msg("Reddit tokens stored")
	return pair, nil
}

// Refresh obtains a new Reddit access token with the stored refresh token.
func (c *Client) Refresh(ctx context.Context) (token.Pair, error) {
	current := c.store.Get()
	if !current.HasRefreshToken() {
		return token.Pair{}, apperrors.ErrNoRefreshToken
	}

	// An empty access token forces the token source to hit the refresh endpoint.
	source := c.reddit.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := source.Token()
	if err != nil {
		return token.Pair{}, newUpstreamError(oauthmodel.ProviderReddit, "token refresh", err)
	}

	pair := token.PairFromOAuth2(tok, current)
	c.store.Set(pair)

	log.Info().Time("expires_at", pair.ExpiresAt).Msg("Reddit access token refreshed")
	return pair, nil
}

// ValidAccessToken returns a Reddit access token that is outside the refresh
// buffer, refreshing first when needed. Concurrent callers share one refresh.
func (c *Client) ValidAccessToken(ctx context.Context) (string, error) {
	if !c.store.NeedsRefresh(c.refreshBuffer) {
		return c.store.Get().AccessToken, nil
	}

	c.refreshLock.Lock()
	defer c.refreshLock.Unlock()

	if !c.store.NeedsRefresh(c.refreshBuffer) {
		return c.store.Get().AccessToken, nil
	}

	pair, err := c.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// TokenSource exposes ValidAccessToken as an oauth2.TokenSource so content API
// clients can use oauth2.Transport.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSourceFunc(func() (*oauth2.Token, error) {
		accessToken, err := c.ValidAccessToken(ctx)
		if err != nil {
			return nil, err
		}
		return &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "bearer",
			Expiry:      c.store.Get().ExpiresAt,
		}, nil
	})
}

// Store returns the token store the client writes to.
func (c *Client) Store() *token.Store {
	return c.store
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) {
	return f()
}
