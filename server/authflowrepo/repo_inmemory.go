package authflowrepo

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/oauthmodel"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Expiry is evaluated lazily on access; there is no background timer.
type InMemoryRepo struct {
	mu          sync.Mutex
	ttl         time.Duration
	tokenLength int
	states      map[string]*FlowState
}

// NewInMemoryRepo creates a registry whose flows live for ttl and whose state
// tokens are built from tokenLength random bytes.
func NewInMemoryRepo(ttl time.Duration, tokenLength int) *InMemoryRepo {
	return &InMemoryRepo{
		ttl:         ttl,
		tokenLength: tokenLength,
		states:      make(map[string]*FlowState),
	}
}

// Create stores a new flow and opportunistically sweeps expired ones.
func (r *InMemoryRepo) Create(initiatorID string) (*FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := NowTimeFunc()
	r.sweepLocked(now)

	var state string
	for {
		s, err := generateStateToken(r.tokenLength)
		if err != nil {
			return nil, err
		}
		if _, exists := r.states[s]; !exists {
			state = s
			break
		}
	}

	flow := &FlowState{
		StateToken:  state,
		FlowID:      uuid.New(),
		InitiatorID: initiatorID,
		Step:        oauthmodel.AwaitingDiscordCallback,
		CreatedAt:   now,
	}
	r.states[state] = flow

	copied := *flow
	return &copied, nil
}

// Get retrieves a live flow by state token
func (r *InMemoryRepo) Get(state string) (*FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, err := r.liveLocked(state)
	if err != nil {
		return nil, err
	}
	copied := *flow
	return &copied, nil
}

// Advance checks and transitions the step in one critical section.
func (r *InMemoryRepo) Advance(state string) (*FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, err := r.liveLocked(state)
	if err != nil {
		return nil, err
	}
	if flow.Step != oauthmodel.AwaitingDiscordCallback {
		return nil, fmt.Errorf("%w: flow is %s", apperrors.ErrInvalidTransition, flow.Step)
	}
	flow.Step = oauthmodel.AwaitingRedditCallback

	copied := *flow
	return &copied, nil
}

// Take claims a flow at step, removing it so no other callback can use it.
// A flow at another step is left in place.
func (r *InMemoryRepo) Take(state string, step oauthmodel.Step) (*FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, err := r.liveLocked(state)
	if err != nil {
		return nil, err
	}
	if flow.Step != step {
		return nil, fmt.Errorf("%w: flow is %s", apperrors.ErrUnknownOrExpiredState, flow.Step)
	}
	delete(r.states, state)
	return flow, nil
}

// Consume removes a flow
func (r *InMemoryRepo) Consume(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
}

func (r *InMemoryRepo) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sweepLocked(NowTimeFunc())
}

func (r *InMemoryRepo) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = make(map[string]*FlowState)
}

// Len counts stored entries, including expired ones not yet swept.
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.states)
}

func (r *InMemoryRepo) liveLocked(state string) (*FlowState, error) {
	if state == "" {
		return nil, apperrors.ErrUnknownOrExpiredState
	}
	flow, exists := r.states[state]
	if !exists || r.expired(flow, NowTimeFunc()) {
		return nil, apperrors.ErrUnknownOrExpiredState
	}
	return flow, nil
}

func (r *InMemoryRepo) sweepLocked(now time.Time) int {
	removed := 0
	for state, flow := range r.states {
		if r.expired(flow, now) {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}

func (r *InMemoryRepo) expired(flow *FlowState, now time.Time) bool {
	return now.Sub(flow.CreatedAt) >= r.ttl
}

// generateStateToken creates a random base64url string
func generateStateToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
