package authflowrepo

import (
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/wilbur/oauthmodel"
)

// FlowState is the in-flight metadata of one linking flow, keyed by its state token.
type FlowState struct {
	StateToken string
	// FlowID correlates log lines for a flow. The state token itself is never logged.
	FlowID      uuid.UUID
	InitiatorID string
	Step        oauthmodel.Step
	CreatedAt   time.Time
}

// Repo correlates the Discord and Reddit redirects of a flow and bounds the
// lifetime of unclaimed flows. Expired entries are reported as unknown even
// before a sweep removes them. Every method is atomic per state token.
type Repo interface {
	// Create starts a flow in AwaitingDiscordCallback and returns it.
	Create(initiatorID string) (*FlowState, error)
	// Get returns a copy of a live flow.
	Get(state string) (*FlowState, error)
	// Advance moves a live flow from AwaitingDiscordCallback to AwaitingRedditCallback
	// and returns a copy of the advanced flow.
	Advance(state string) (*FlowState, error)
	// Take removes and returns a live flow if it is at step.
	Take(state string, step oauthmodel.Step) (*FlowState, error)
	// Consume removes a flow unconditionally.
	Consume(state string)
	// SweepExpired removes expired flows and returns how many were removed.
	SweepExpired() int
	// Clear abandons every flow.
	Clear()
	Len() int
}
