package auth

import (
	"errors"
	"fmt"

	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/internal/utils"
	"github.com/jrsteele09/wilbur/oauthmodel"
	"golang.org/x/oauth2"
)

const maxErrorBody = 512

// UpstreamAuthError is returned when Discord or Reddit rejects an exchange or
// answers with something that can't be used. It matches apperrors.ErrUpstreamAuth.
// Body is whatever the provider sent back and never contains our own secrets.
type UpstreamAuthError struct {
	Provider   oauthmodel.Provider
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamAuthError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamAuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperrors.ErrUpstreamAuth}
	}
	return []error{apperrors.ErrUpstreamAuth, e.Err}
}

func newUpstreamError(provider oauthmodel.Provider, operation string, err error) *UpstreamAuthError {
	upstream := &UpstreamAuthError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			upstream.StatusCode = retrieveErr.Response.StatusCode
		}
		upstream.Body = utils.Truncate(string(retrieveErr.Body), maxErrorBody)
	}
	return upstream
}
