package hardening

import (
	"context"
	"errors"
	"time"
)

// Placement is where the plants should currently be kept
type Placement string

const (
	PlacementInside  Placement = "inside"
	PlacementOutside Placement = "outside"
)

// Valid reports whether p is a known placement value
func (p Placement) Valid() bool {
	return p == PlacementInside || p == PlacementOutside
}

// PersistedState is the last committed placement decision. It is read once
// at the start of a run and overwritten exactly when the verdict changes.
type PersistedState struct {
	Placement   Placement `json:"placement"`
	LastUpdated time.Time `json:"last_updated"`
}

// StateStore is the capability interface over the persisted placement record.
// Load returns nil (and no error) when no state has ever been committed, so
// the bootstrap case is a first-class branch rather than error flow.
type StateStore interface {
	Load(ctx context.Context) (*PersistedState, error)
	Save(ctx context.Context, state PersistedState) error
}

// ErrStateStore signals a state read or write failure. Fatal for the run:
// no decision is assumed made and no default placement is invented.
var ErrStateStore = errors.New("state store failure")

// ErrNotificationDelivery signals that a computed decision could not be
// announced. The new state must not be committed so the next run retries the
// notification (at-least-once delivery).
var ErrNotificationDelivery = errors.New("notification delivery failure")
