// Package audit is the append-only trail of every attempted mutation. The
// trail is a dumb, trustworthy sink: it never judges a record, and its
// contract has no update or delete, not merely forbidden ones. The read gate
// (canViewAudit) is enforced by the gateway, not here.
package audit

import (
	"time"

	"github.com/google/uuid"

	"labtrace/internal/lifecycle"
	"labtrace/pkg/domain"
)

// Outcome is what became of a mutation intent. Denials are recorded with the
// same fidelity as successes: a denied attempt is itself a security-relevant
// event.
type Outcome string

const (
	OutcomeAllowed          Outcome = "allowed"
	OutcomeDeniedPermission Outcome = "denied_permission"
	OutcomeDeniedTransition Outcome = "denied_transition"
)

// Category classifies records for retention and export routing. Allowed
// lifecycle mutations are compliance material (long retention, tamper-proof
// storage); denials feed security monitoring.
type Category string

const (
	CategoryCompliance Category = "compliance"
	CategorySecurity   Category = "security"
	CategoryOperations Category = "operations"
)

// Category derives the record category from the outcome. Unknown outcomes
// default to operations.
func (o Outcome) Category() Category {
	switch o {
	case OutcomeAllowed:
		return CategoryCompliance
	case OutcomeDeniedPermission, OutcomeDeniedTransition:
		return CategorySecurity
	}
	return CategoryOperations
}

// Record describes one attempted mutation and its outcome. Once appended it
// is immutable. Seq is store-issued and strictly monotonic, giving the trail
// a total order consistent with real append time even when timestamps tie.
//
// A record outlives its entity: after a delete transition the record is the
// only remaining evidence the entity existed.
type Record struct {
	Seq        uint64               `json:"seq"`
	ID         uuid.UUID            `json:"id"`
	Timestamp  time.Time            `json:"timestamp"`
	ActorID    domain.ActorID       `json:"actor_id"`
	ActorRole  domain.Role          `json:"actor_role"`
	Capability domain.Capability    `json:"capability,omitempty"`
	EntityKind domain.Kind          `json:"entity_kind"`
	EntityID   domain.EntityID      `json:"entity_id"`
	Transition lifecycle.Transition `json:"transition"`
	FromState  lifecycle.State      `json:"from_state"`
	ToState    lifecycle.State      `json:"to_state,omitempty"`
	Outcome    Outcome              `json:"outcome"`
	Category   Category             `json:"category"`
	Detail     string               `json:"detail,omitempty"`
	RequestID  string               `json:"request_id,omitempty"`
	ClientIP   string               `json:"client_ip,omitempty"`
	UserAgent  string               `json:"user_agent,omitempty"`
}

// Filter narrows a trail query. Zero values mean unbounded. AfterSeq is a
// resume cursor: paging by (AfterSeq, Limit) makes consumption lazy and
// restartable without the store holding iterator state.
type Filter struct {
	ActorID    *domain.ActorID
	EntityKind *domain.Kind
	EntityID   *domain.EntityID
	Category   *Category
	From       time.Time
	To         time.Time
	AfterSeq   uint64
	Limit      int
}

// Matches reports whether the record passes every set filter field except
// the cursor and limit, which are ordering concerns.
func (f Filter) Matches(r Record) bool {
	if f.ActorID != nil && r.ActorID != *f.ActorID {
		return false
	}
	if f.EntityKind != nil && r.EntityKind != *f.EntityKind {
		return false
	}
	if f.EntityID != nil && r.EntityID != *f.EntityID {
		return false
	}
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if !f.From.IsZero() && r.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Timestamp.After(f.To) {
		return false
	}
	return true
}
