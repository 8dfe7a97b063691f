package token

import (
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Pair is the Reddit credential set held for the linked account.
type Pair struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    time.Time
}

// NeedsRefresh reports whether the access token must be refreshed before use:
// it is missing, or now falls within buffer of ExpiresAt.
// A zero ExpiresAt (tokens loaded from configuration) always needs a refresh.
func (p Pair) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	if p.AccessToken == "" || p.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(p.ExpiresAt.Add(-buffer))
}

func (p Pair) HasRefreshToken() bool {
	return p.RefreshToken != ""
}

// PairFromOAuth2 converts a token returned by an oauth2 exchange or refresh.
// previous supplies the refresh token when the provider did not rotate it.
func PairFromOAuth2(t *oauth2.Token, previous Pair) Pair {
	p := Pair{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry,
	}
	if p.RefreshToken == "" {
		p.RefreshToken = previous.RefreshToken
	}
	if scope, ok := t.Extra("scope").(string); ok {
		p.Scope = scope
	} else {
		p.Scope = previous.Scope
	}
	return p
}

// Store holds the single outstanding Pair for the process. The pair is
// overwritten on exchange or refresh and never deleted.
type Store struct {
	mu   sync.RWMutex
	pair Pair
}

// NewStore creates a store seeded with initial, typically the tokens found in configuration.
func NewStore(initial Pair) *Store {
	return &Store{pair: initial}
}

// Get returns a copy of the current pair.
func (s *Store) Get() Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

// Set overwrites the current pair.
func (s *Store) Set(p Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = p
}

// NeedsRefresh checks the current pair against the clock.
func (s *Store) NeedsRefresh(buffer time.Duration) bool {
	return s.Get().NeedsRefresh(NowTimeFunc(), buffer)
}
