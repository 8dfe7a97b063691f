package config

import (
	"net"
	"strconv"
)

// EnvVars holds every value read from the environment. Upstream base URLs are
// overridable so the OAuth and content clients can be pointed at test servers.
type EnvVars struct {
	AppName string `env:"APP_NAME" envDefault:"Wilbur"`
	Env     string `env:"ENV" envDefault:"DEV"`
	Version string `env:"APP_VERSION" envDefault:"dev"`

	BotToken              string   `env:"BOT_TOKEN,notEmpty"`
	GuildIDs              []string `env:"GUILDS" envSeparator:","`
	EnableLogging         bool     `env:"ENABLE_LOGGING" envDefault:"false"`
	CommandLoggingChannel string   `env:"COMMAND_LOGGING_CHANNEL"`
	RelayChannelID        string   `env:"DISCORD_CHANNEL_ID"`

	DiscordOAuthClientID     string `env:"DISCORD_OAUTH_CLIENT_ID"`
	DiscordOAuthClientSecret string `env:"DISCORD_OAUTH_CLIENT_SECRET"`
	DiscordOAuthRedirectURI  string `env:"DISCORD_OAUTH_REDIRECT_URI" envDefault:"http://localhost:3000/auth/discord/callback"`
	DiscordAPIBaseURL        string `env:"DISCORD_API_BASE_URL" envDefault:"https://discord.com/api"`

	CallbackHost string `env:"OAUTH_SERVER_HOST" envDefault:"localhost"`
	CallbackPort int    `env:"OAUTH_SERVER_PORT" envDefault:"3000"`

	RedditClientID     string `env:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `env:"REDDIT_CLIENT_SECRET"`
	RedditRedirectURI  string `env:"REDDIT_REDIRECT_URI" envDefault:"http://localhost:3000/auth/reddit/callback"`
	RedditAccessToken  string `env:"REDDIT_OAUTH_ACCESS_TOKEN"`
	RedditRefreshToken string `env:"REDDIT_OAUTH_REFRESH_TOKEN"`
	RedditUserAgent    string `env:"REDDIT_USER_AGENT" envDefault:"DiscordBot:Wilbur:v1.0.0"`
	RedditPost         bool   `env:"REDDIT_POST" envDefault:"false"`
	RedditSubreddit    string `env:"REDDIT_SUBREDDIT"`
	RedditFlair        string `env:"REDDIT_FLAIR"`
	RedditBaseURL      string `env:"REDDIT_BASE_URL" envDefault:"https://www.reddit.com"`
	RedditAPIBaseURL   string `env:"REDDIT_API_BASE_URL" envDefault:"https://oauth.reddit.com"`

	TrelloAPIKey             string `env:"TRELLO_API_KEY"`
	TrelloToken              string `env:"TRELLO_TOKEN"`
	TrelloSuggestionList     string `env:"TRELLO_SUGGESTION_LIST"`
	TrelloSuggestionTemplate string `env:"TRELLO_SUGGESTION_TEMPLATE"`
	TrelloIssueList          string `env:"TRELLO_ISSUE_LIST"`
	TrelloIssueTemplate      string `env:"TRELLO_ISSUE_TEMPLATE"`
	TrelloBaseURL            string `env:"TRELLO_BASE_URL" envDefault:"https://api.trello.com/1"`
	// TrelloChannel receives a short notice for every card filed from the help buttons
	TrelloChannel string `env:"TRELLO_CHANNEL"`
}

var _ EnvConfig = EnvVars{}
var _ DiscordConfig = EnvVars{}
var _ CallbackServerConfig = EnvVars{}
var _ RedditConfig = EnvVars{}
var _ TrelloConfig = EnvVars{}

func (e EnvVars) GetAppName() string { return e.AppName }
func (e EnvVars) GetVersion() string { return e.Version }

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}

func (e EnvVars) GetBotToken() string                { return e.BotToken }
func (e EnvVars) GetGuildIDs() []string              { return e.GuildIDs }
func (e EnvVars) IsCommandLoggingEnabled() bool      { return e.EnableLogging }
func (e EnvVars) GetCommandLoggingChannel() string   { return e.CommandLoggingChannel }
func (e EnvVars) GetRelayChannelID() string          { return e.RelayChannelID }
func (e EnvVars) GetDiscordOAuthClientID() string    { return e.DiscordOAuthClientID }
func (e EnvVars) GetDiscordOAuthRedirectURI() string { return e.DiscordOAuthRedirectURI }
func (e EnvVars) GetDiscordAPIBaseURL() string       { return e.DiscordAPIBaseURL }

func (e EnvVars) GetDiscordOAuthClientSecret() string {
	return e.DiscordOAuthClientSecret
}

func (e EnvVars) GetCallbackHost() string { return e.CallbackHost }
func (e EnvVars) GetCallbackPort() int    { return e.CallbackPort }

// GetCallbackAddr returns the host:port the callback server listens on.
func (e EnvVars) GetCallbackAddr() string {
	return net.JoinHostPort(e.CallbackHost, strconv.Itoa(e.CallbackPort))
}

func (e EnvVars) GetRedditClientID() string     { return e.RedditClientID }
func (e EnvVars) GetRedditClientSecret() string { return e.RedditClientSecret }
func (e EnvVars) GetRedditRedirectURI() string  { return e.RedditRedirectURI }
func (e EnvVars) GetRedditAccessToken() string  { return e.RedditAccessToken }
func (e EnvVars) GetRedditRefreshToken() string { return e.RedditRefreshToken }
func (e EnvVars) GetRedditUserAgent() string    { return e.RedditUserAgent }
func (e EnvVars) IsRedditPostEnabled() bool     { return e.RedditPost }
func (e EnvVars) GetRedditSubreddit() string    { return e.RedditSubreddit }
func (e EnvVars) GetRedditFlair() string        { return e.RedditFlair }
func (e EnvVars) GetRedditBaseURL() string      { return e.RedditBaseURL }
func (e EnvVars) GetRedditAPIBaseURL() string   { return e.RedditAPIBaseURL }

// IsRedditLinkingConfigured reports whether both legs of the linking flow have
// client credentials. Without them /redditauth is not registered.
func (e EnvVars) IsRedditLinkingConfigured() bool {
	return e.DiscordOAuthClientID != "" && e.DiscordOAuthClientSecret != "" &&
		e.RedditClientID != "" && e.RedditClientSecret != ""
}

func (e EnvVars) GetTrelloAPIKey() string             { return e.TrelloAPIKey }
func (e EnvVars) GetTrelloToken() string              { return e.TrelloToken }
func (e EnvVars) GetTrelloSuggestionList() string     { return e.TrelloSuggestionList }
func (e EnvVars) GetTrelloSuggestionTemplate() string { return e.TrelloSuggestionTemplate }
func (e EnvVars) GetTrelloIssueList() string          { return e.TrelloIssueList }
func (e EnvVars) GetTrelloIssueTemplate() string      { return e.TrelloIssueTemplate }
func (e EnvVars) GetTrelloBaseURL() string            { return e.TrelloBaseURL }
func (e EnvVars) GetTrelloChannel() string            { return e.TrelloChannel }

func (e EnvVars) IsTrelloConfigured() bool {
	return e.TrelloAPIKey != "" && e.TrelloToken != ""
}
