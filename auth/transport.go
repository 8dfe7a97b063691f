package auth

import "net/http"

// userAgentTransport stamps every outbound request with the bot's user agent.
// Reddit throttles requests that use a generic one.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// NewHTTPClient builds the client used for every call made with credential material.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.GetOutboundTimeout(),
		Transport: &userAgentTransport{
			userAgent: cfg.GetRedditUserAgent(),
			base:      http.DefaultTransport,
		},
	}
}
