package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	DiscordConfig
	CallbackServerConfig
	RedditConfig
	TrelloConfig
	OAuthConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetVersion() string
}

type DiscordConfig interface {
	GetBotToken() string
	GetGuildIDs() []string
	IsCommandLoggingEnabled() bool
	GetCommandLoggingChannel() string
	GetRelayChannelID() string
	GetDiscordOAuthClientID() string
	GetDiscordOAuthClientSecret() string
	GetDiscordOAuthRedirectURI() string
	GetDiscordAPIBaseURL() string
}

type CallbackServerConfig interface {
	GetCallbackHost() string
	GetCallbackPort() int
	GetCallbackAddr() string
}

type RedditConfig interface {
	GetRedditClientID() string
	GetRedditClientSecret() string
	GetRedditRedirectURI() string
	GetRedditAccessToken() string
	GetRedditRefreshToken() string
	GetRedditUserAgent() string
	IsRedditPostEnabled() bool
	GetRedditSubreddit() string
	GetRedditFlair() string
	GetRedditBaseURL() string
	GetRedditAPIBaseURL() string
	IsRedditLinkingConfigured() bool
}

type TrelloConfig interface {
	GetTrelloAPIKey() string
	GetTrelloToken() string
	GetTrelloSuggestionList() string
	GetTrelloSuggestionTemplate() string
	GetTrelloIssueList() string
	GetTrelloIssueTemplate() string
	GetTrelloBaseURL() string
	GetTrelloChannel() string
	IsTrelloConfigured() bool
}

type mainConfig struct {
	EnvVars
	OAuth
}

// New reads the process environment into a Config.
func New() (Config, error) {
	var vars EnvVars
	if err := env.Parse(&vars); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	vars.normalise()
	return mainConfig{EnvVars: vars}, nil
}

// FromEnvVars wraps an already populated EnvVars, used by tests and tools that
// don't read the process environment.
func FromEnvVars(vars EnvVars) Config {
	vars.normalise()
	return mainConfig{EnvVars: vars}
}

func (e *EnvVars) normalise() {
	if e.EnableLogging && e.CommandLoggingChannel == "" {
		log.Warn().Msg("ENABLE_LOGGING is true but COMMAND_LOGGING_CHANNEL is empty, command logging disabled")
		e.EnableLogging = false
	}
}
