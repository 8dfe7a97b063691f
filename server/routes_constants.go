package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// OAuth redirect targets. These must match the redirect URIs registered
	// with the Discord and Reddit applications.
	RouteDiscordCallback = "/auth/discord/callback"
	RouteRedditCallback  = "/auth/reddit/callback"
)
