package domain

import (
	"github.com/google/uuid"

	dErrors "labtrace/pkg/domain-errors"
)

// ActorID identifies the authenticated caller. Session establishment is
// external; by the time the core sees an ActorID it is already authenticated.
//
// Usage: construct via ParseActorID at trust boundaries to enforce the
// non-nil invariant; direct casting bypasses validation.
type ActorID uuid.UUID

// NewActorID generates a fresh actor id.
func NewActorID() ActorID {
	return ActorID(uuid.New())
}

// ParseActorID constructs an ActorID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseActorID(s string) (ActorID, error) {
	if s == "" {
		return ActorID{}, dErrors.New(dErrors.CodeInvalidInput, "actor id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ActorID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid actor id")
	}
	if u == uuid.Nil {
		return ActorID{}, dErrors.New(dErrors.CodeInvalidInput, "actor id cannot be nil")
	}
	return ActorID(u), nil
}

func (id ActorID) String() string { return uuid.UUID(id).String() }

func (id ActorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText makes ActorID round-trip as its canonical UUID string in JSON
// documents and as a JSON object key.
func (id ActorID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ActorID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ActorID(u)
	return nil
}

// EntityID is the human-readable identifier of a domain entity, e.g.
// "ORG-2024-001" for an organic sample or "EXP-2024-003" for an experiment.
// The scheme is kind-specific and immutable once assigned.
type EntityID string

func (id EntityID) String() string { return string(id) }
