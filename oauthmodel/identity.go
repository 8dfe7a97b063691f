package oauthmodel

import "github.com/jrsteele09/wilbur/internal/utils"

// DiscordIdentity is the profile returned by GET /users/@me after the Discord
// code exchange. It only identifies who authorised a flow and is never stored.
type DiscordIdentity struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	GlobalName    *string `json:"global_name"`
	Avatar        *string `json:"avatar"`
	Verified      bool    `json:"verified"`
	Email         *string `json:"email"`
}

// DisplayName prefers the global display name over the username.
func (d DiscordIdentity) DisplayName() string {
	if name := utils.Value(d.GlobalName); name != "" {
		return name
	}
	return d.Username
}
