package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/wilbur/oauthmodel"
	"github.com/rs/zerolog/log"
)

const (
	msgDiscordAuthFailed   = "Discord authentication failed"
	msgRedditAuthFailed    = "Reddit authentication failed"
	msgMissingParameters   = "Missing code or state parameter"
	msgInvalidState        = "Invalid or expired state"
	msgDiscordExchangeFail = "Failed to authenticate with Discord"
	msgRedditExchangeFail  = "Failed to authenticate with Reddit"
)

type successPageData struct {
	AppName         string
	Scope           string
	ExpiresAt       string
	HasRefreshToken bool
}

// DiscordCallbackHandler completes the Discord leg. It verifies the user's
// identity, advances the flow and redirects the browser to Reddit with the
// same state token.
func (s *Server) DiscordCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := oauthmodel.ParseCallbackParameters(r)

		// A provider error leaves the flow untouched so it can expire on its own
		if params.HasError() {
			log.Warn().
				Str("provider", oauthmodel.ProviderDiscord.String()).
				Str("error", params.Error).
				Str("error_description", params.ErrorDescription).
				Msg("Authorization denied by provider")
			s.renderError(w, http.StatusBadRequest, msgDiscordAuthFailed)
			return
		}
		if err := params.Validate(); err != nil {
			s.renderError(w, http.StatusBadRequest, msgMissingParameters)
			return
		}

		// Advance checks and moves the step under one lock, so a replayed
		// callback loses here
		flow, err := s.flows.Advance(params.State)
		if err != nil {
			log.Warn().Str("provider", oauthmodel.ProviderDiscord.String()).Err(err).Msg("Callback with unknown, expired or already used state")
			s.renderError(w, http.StatusBadRequest, msgInvalidState)
			return
		}

		identity, err := s.oauth.ExchangeDiscordCode(r.Context(), params.Code)
		if err != nil {
			s.flows.Consume(params.State)
			log.Err(err).Str("flow_id", flow.FlowID.String()).Msg("Discord code exchange failed")
			s.renderError(w, http.StatusInternalServerError, msgDiscordExchangeFail)
			return
		}

		log.Info().
			Str("flow_id", flow.FlowID.String()).
			Str("initiator_id", flow.InitiatorID).
			Str("discord_user_id", identity.ID).
			Str("discord_user", identity.DisplayName()).
			Msg("Discord leg complete, redirecting to Reddit")

		http.Redirect(w, r, s.oauth.BuildRedditAuthURL(params.State), http.StatusFound)
	}
}

// RedditCallbackHandler completes the Reddit leg. The flow is removed before
// the exchange so a state token can never complete twice.
func (s *Server) RedditCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := oauthmodel.ParseCallbackParameters(r)

		if params.HasError() {
			log.Warn().
				Str("provider", oauthmodel.ProviderReddit.String()).
				Str("error", params.Error).
				Str("error_description", params.ErrorDescription).
				Msg("Authorization denied by provider")
			s.renderError(w, http.StatusBadRequest, msgRedditAuthFailed)
			return
		}
		if err := params.Validate(); err != nil {
			s.renderError(w, http.StatusBadRequest, msgMissingParameters)
			return
		}

		flow, err := s.flows.Take(params.State, oauthmodel.AwaitingRedditCallback)
		if err != nil {
			log.Warn().Str("provider", oauthmodel.ProviderReddit.String()).Msg("Callback with unknown or expired state")
			s.renderError(w, http.StatusBadRequest, msgInvalidState)
			return
		}

		pair, err := s.oauth.ExchangeRedditCode(r.Context(), params.Code)
		if err != nil {
			log.Err(err).Str("flow_id", flow.FlowID.String()).Msg("Reddit code exchange failed")
			s.renderError(w, http.StatusInternalServerError, msgRedditExchangeFail)
			return
		}

		log.Info().
			Str("flow_id", flow.FlowID.String()).
			Str("initiator_id", flow.InitiatorID).
			Msg("Reddit account linked")

		render(w, http.StatusOK, s.pages.success, successPageData{
			AppName:         s.appName,
			Scope:           pair.Scope,
			ExpiresAt:       pair.ExpiresAt.UTC().Format(time.RFC1123),
			HasRefreshToken: pair.HasRefreshToken(),
		})
	}
}
