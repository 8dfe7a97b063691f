package oauthmodel

// Step is the position of a linking flow between its two redirects.
// Terminal outcomes (completed, failed, expired) are never stored; the flow is
// simply removed from the registry.
type Step string

const (
	// AwaitingDiscordCallback is the initial step.
	// Entered: when a state token is created for a /redditauth invocation
	// Left: when /auth/discord/callback successfully exchanges the Discord code
	AwaitingDiscordCallback Step = "awaiting_discord_callback"

	// AwaitingRedditCallback follows a successful Discord exchange.
	// Entered: just before the browser is redirected to Reddit's authorize page
	// Left: when /auth/reddit/callback claims the state (success or failure)
	AwaitingRedditCallback Step = "awaiting_reddit_callback"
)

func (s Step) String() string {
	return string(s)
}

// Provider names an upstream identity provider. Used in logs and errors.
type Provider string

const (
	ProviderDiscord Provider = "discord"
	ProviderReddit  Provider = "reddit"
)

func (p Provider) String() string {
	return string(p)
}

const (
	// DurationPermanent asks Reddit to always issue a refresh token.
	// Example: https://www.reddit.com/api/v1/authorize?...&duration=permanent
	DurationPermanent = "permanent"

	// RedditScopeSeparator joins Reddit scopes. Reddit documents comma-separated
	// scope lists, unlike the space-separated list Discord expects.
	RedditScopeSeparator = ","
)
