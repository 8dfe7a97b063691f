package oauthmodel

import "errors"

var (
	ErrMissingCode  = errors.New("missing code parameter")
	ErrMissingState = errors.New("missing state parameter")
)
