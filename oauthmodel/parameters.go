package oauthmodel

import (
	"net/http"
)

// CallbackParameters are the query parameters an identity provider appends
// when it redirects the browser back to one of the callback routes.
type CallbackParameters struct {
	// Code is the one-shot authorization code.
	// Example: "NhhvTDYsFcdgNLnnLijcl7Ku7bEEeee"
	Code string

	// State is the opaque correlator issued when the flow was created.
	State string

	// Error is set instead of Code when the user denied access or the provider failed.
	// Example: "access_denied"
	Error string

	// ErrorDescription is an optional human readable companion to Error.
	ErrorDescription string
}

// ParseCallbackParameters reads the callback parameters from the request URL.
func ParseCallbackParameters(r *http.Request) CallbackParameters {
	q := r.URL.Query()
	return CallbackParameters{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
}

// HasError reports whether the provider signalled a failure.
func (p CallbackParameters) HasError() bool {
	return p.Error != ""
}

// Validate checks the parameters required to continue the flow.
func (p CallbackParameters) Validate() error {
	if p.Code == "" {
		return ErrMissingCode
	}
	if p.State == "" {
		return ErrMissingState
	}
	return nil
}
