package errors

import (
	"errors"
	"fmt"
)

// Common error types for the bot and its OAuth linking flow
var (
	// Callback errors
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUnknownOrExpiredState = errors.New("invalid or expired session")
	ErrInvalidTransition     = errors.New("invalid flow transition")

	// Upstream / token errors
	ErrUpstreamAuth   = errors.New("upstream authorization failed")
	ErrNoRefreshToken = errors.New("no refresh token available")

	// Content API errors
	ErrUpstreamRequest = errors.New("upstream request failed")

	// General errors
	ErrNotConfigured = errors.New("not configured")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
