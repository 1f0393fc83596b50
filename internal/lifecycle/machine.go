// Package lifecycle defines the per-kind status state machines. A machine is
// a static transition table; it knows nothing about roles or storage. The
// authorization gateway consults it to resolve which capability a requested
// move is gated on, and whether the move is legal from the current state.
package lifecycle

import (
	"fmt"
	"sort"

	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
)

// State is an entity lifecycle position. Two virtual states bracket every
// machine: StateNonexistent before creation and StateDeleted after deletion.
type State string

const (
	// StateNonexistent is the virtual pre-state every create transition
	// starts from. No entity ever persists in it.
	StateNonexistent State = "nonexistent"

	// StateDeleted is the virtual post-state of a delete transition. The
	// entity record is gone once it is reached; only the audit trail still
	// refers to it.
	StateDeleted State = "deleted"
)

// Transition is the name of a requested move, e.g. "submit" or "quarantine".
// The same name may appear under several from-states with different targets
// (the quarantine toggle relies on this).
type Transition string

// Rule is the resolved outcome of a transition lookup: where the entity goes
// and which capability the move is gated on. Requires may be CapNone for
// moves open to any authenticated actor.
type Rule struct {
	To       State
	Requires domain.Capability
}

// Machine is one entity kind's transition table. Immutable after
// construction, safe for concurrent use.
type Machine struct {
	kind  domain.Kind
	table map[State]map[Transition]Rule
}

// New builds a machine from a nested rule table. Determinism holds by
// construction: the map shape permits exactly one rule per (from, name) pair.
func New(kind domain.Kind, table map[State]map[Transition]Rule) *Machine {
	return &Machine{kind: kind, table: table}
}

// Kind returns the entity kind this machine governs.
func (m *Machine) Kind() domain.Kind { return m.kind }

// Resolve looks up the rule for a transition from the given state. The
// boolean is false when the table has no entry, which callers must report as
// an illegal transition, never as a permission failure.
func (m *Machine) Resolve(from State, name Transition) (Rule, bool) {
	rule, ok := m.table[from][name]
	return rule, ok
}

// Apply resolves and returns the target state.
//
// Errors: CodeIllegalTransition when the table has no entry for (from, name).
// The message names both so user-facing remediation can distinguish a wrong
// lifecycle position from a missing role.
func (m *Machine) Apply(from State, name Transition) (State, error) {
	rule, ok := m.Resolve(from, name)
	if !ok {
		return "", dErrors.New(dErrors.CodeIllegalTransition,
			fmt.Sprintf("%s cannot %q from state %q", m.kind, name, from))
	}
	return rule.To, nil
}

// Terminal reports whether the state has no outgoing transitions.
func (m *Machine) Terminal(s State) bool {
	return len(m.table[s]) == 0
}

// TransitionsFrom lists the transition names legal from a state, sorted for
// stable output. Used by the UI layer to decide which actions to render.
func (m *Machine) TransitionsFrom(from State) []Transition {
	names := make([]Transition, 0, len(m.table[from]))
	for name := range m.table[from] {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// States lists every from-state the table mentions, sorted. Virtual states
// appear only if they carry rules (StateNonexistent always does).
func (m *Machine) States() []State {
	states := make([]State, 0, len(m.table))
	for s := range m.table {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}
