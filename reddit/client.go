package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	submitPath      = "/api/submit"
	selectFlairPath = "/api/selectflair"
	maxErrorBody    = 512
)

// TokenSourceProvider hands out a token source that refreshes before use.
// auth.Client implements it.
type TokenSourceProvider interface {
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// Client posts to the Reddit content API on behalf of the linked account.
type Client struct {
	apiBase string
	tokens  TokenSourceProvider
	base    *http.Client
}

// NewClient creates a content API client. base carries the timeout and user
// agent; the bearer token is added per request.
func NewClient(apiBase string, tokens TokenSourceProvider, base *http.Client) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &Client{
		apiBase: strings.TrimSuffix(apiBase, "/"),
		tokens:  tokens,
		base:    base,
	}
}

// Result identifies a created post.
type Result struct {
	// ID is the base36 post id. Example: "1abcde"
	ID string
	// Name is the fullname used by other endpoints. Example: "t3_1abcde"
	Name string
	URL  string
}

type apiResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

// Submit creates the post and then applies its flair, if any. A flair failure
// is logged and does not fail the submission.
func (c *Client) Submit(ctx context.Context, s Submission) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, submitPath, s.form())
	if err != nil {
		return nil, apperrors.Wrapf(err, "[reddit Submit]")
	}
	result := &Result{ID: resp.JSON.Data.ID, Name: resp.JSON.Data.Name, URL: resp.JSON.Data.URL}

	log.Info().
		Str("subreddit", s.Target()).
		Str("kind", s.Kind()).
		Str("post", result.Name).
		Msg("Reddit post submitted")

	if s.FlairText() != "" && result.Name != "" {
		if err := c.selectFlair(ctx, result.Name, s.FlairText()); err != nil {
			log.Warn().Err(err).Str("post", result.Name).Msg("Failed to apply flair")
		}
	}
	return result, nil
}

func (c *Client) selectFlair(ctx context.Context, fullname, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("link", fullname)
	form.Set("text", text)
	_, err := c.post(ctx, selectFlairPath, form)
	return err
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := &http.Client{
		Timeout: c.base.Timeout,
		Transport: &oauth2.Transport{
			Source: c.tokens.TokenSource(ctx),
			Base:   c.base.Transport,
		},
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", apperrors.ErrUpstreamRequest, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d: %s", apperrors.ErrUpstreamRequest, path, resp.StatusCode,
			utils.Truncate(string(body), maxErrorBody))
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %v", apperrors.ErrUpstreamRequest, path, err)
	}
	if len(decoded.JSON.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s rejected: %v", apperrors.ErrUpstreamRequest, path, decoded.JSON.Errors)
	}
	return &decoded, nil
}
