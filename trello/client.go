package trello

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/internal/utils"
	"github.com/rs/zerolog/log"
)

// keepFromSource lists what a new card copies from its template card.
const keepFromSource = "attachments,checklists,comments,customFields,due,start,labels,members,start,stickers"

type Config interface {
	GetTrelloAPIKey() string
	GetTrelloToken() string
	GetTrelloSuggestionList() string
	GetTrelloSuggestionTemplate() string
	GetTrelloIssueList() string
	GetTrelloIssueTemplate() string
	GetTrelloBaseURL() string
	IsTrelloConfigured() bool
}

// Client creates feedback cards on the project board.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(cfg.GetTrelloBaseURL(), "/"),
		httpClient: httpClient,
	}
}

// Card is the subset of the created card the bot reports back.
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ShortURL string `json:"shortUrl"`
}

type createCardRequest struct {
	Key            string `json:"key"`
	Token          string `json:"token"`
	IDList         string `json:"idList"`
	IDCardSource   string `json:"idCardSource,omitempty"`
	KeepFromSource string `json:"keepFromSource,omitempty"`
	Name           string `json:"name"`
	Desc           string `json:"desc"`
}

// CreateCard files report on the list for its type, copying the template card.
func (c *Client) CreateCard(ctx context.Context, reporter string, report Report) (*Card, error) {
	if !c.cfg.IsTrelloConfigured() {
		return nil, fmt.Errorf("[trello CreateCard] %w: trello credentials", apperrors.ErrNotConfigured)
	}
	if err := report.validate(); err != nil {
		return nil, err
	}

	listID, templateID := c.destination(report)
	if listID == "" {
		return nil, fmt.Errorf("[trello CreateCard] %w: no list for %s", apperrors.ErrNotConfigured, report.Type())
	}

	payload := createCardRequest{
		Key:          c.cfg.GetTrelloAPIKey(),
		Token:        c.cfg.GetTrelloToken(),
		IDList:       listID,
		IDCardSource: templateID,
		Name:         report.CardName(),
		Desc:         report.CardDescription(reporter),
	}
	if templateID != "" {
		payload.KeepFromSource = keepFromSource
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[trello CreateCard] encode")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cards", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrapf(err, "[trello CreateCard] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[trello CreateCard] %w: %v", apperrors.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("[trello CreateCard] %w: read response: %v", apperrors.ErrUpstreamRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("[trello CreateCard] %w: status %d: %s", apperrors.ErrUpstreamRequest,
			resp.StatusCode, utils.Truncate(string(respBody), 512))
	}

	var card Card
	if err := json.Unmarshal(respBody, &card); err != nil {
		return nil, fmt.Errorf("[trello CreateCard] %w: decode: %v", apperrors.ErrUpstreamRequest, err)
	}

	log.Info().Str("type", report.Type()).Str("card_id", card.ID).Str("reporter", reporter).Msg("Trello card created")
	return &card, nil
}

func (c *Client) destination(report Report) (listID, templateID string) {
	switch report.(type) {
	case Issue:
		return c.cfg.GetTrelloIssueList(), c.cfg.GetTrelloIssueTemplate()
	default:
		return c.cfg.GetTrelloSuggestionList(), c.cfg.GetTrelloSuggestionTemplate()
	}
}
