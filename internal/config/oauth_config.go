package config

import "time"

type OAuthConfig interface {
	GetFlowTTL() time.Duration
	GetRefreshBuffer() time.Duration
	GetStateTokenLength() int
	GetDiscordScopes() []string
	GetRedditScopes() []string
	GetOutboundTimeout() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetFlowTTL is how long a linking flow may stay unclaimed.
func (OAuth) GetFlowTTL() time.Duration {
	return 10 * time.Minute
}

// GetRefreshBuffer is how long before expiry the Reddit access token is refreshed.
func (OAuth) GetRefreshBuffer() time.Duration {
	return 5 * time.Minute
}

func (OAuth) GetStateTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (OAuth) GetDiscordScopes() []string {
	return []string{"identify", "email"}
}

func (OAuth) GetRedditScopes() []string {
	return []string{"submit", "read", "identity"}
}

func (OAuth) GetOutboundTimeout() time.Duration {
	return 15 * time.Second
}
