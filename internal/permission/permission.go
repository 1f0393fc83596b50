// Package permission holds the static role-to-capability model. The table is
// an immutable configuration value built once at process start; role
// reassignment changes an actor's role, never the table.
package permission

import (
	"fmt"
	"sort"

	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
)

// Table maps every role to a boolean per capability. It must be exhaustive:
// a missing cell is a configuration defect, not an implicit false.
type Table map[domain.Role]map[domain.Capability]bool

// Model answers capability checks. It is pure (no I/O) and safe for
// concurrent use: the backing table is never mutated after construction.
type Model struct {
	table Table
}

// New validates the table for totality and returns the model. Validation runs
// here, at startup, so a gap fails fast instead of resolving silently to
// false at call time.
//
// Errors: CodeConfiguration when any role or capability cell is undefined, or
// when the table names a role outside the supported set.
func New(table Table) (*Model, error) {
	for role := range table {
		if !role.IsValid() {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("permission table names unsupported role %q", role))
		}
	}
	for _, role := range domain.Roles() {
		row, ok := table[role]
		if !ok {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("permission table missing role %q", role))
		}
		for _, cap := range domain.Capabilities() {
			if _, ok := row[cap]; !ok {
				return nil, dErrors.New(dErrors.CodeConfiguration,
					fmt.Sprintf("permission table missing %q for role %q", cap, role))
			}
		}
	}
	return &Model{table: clone(table)}, nil
}

// Allowed reports whether the role holds the capability.
//
// CapNone always passes: it marks transitions open to any authenticated
// actor (the mutation is still audited). Admin passes every check by an
// explicit override, guarding against accidental omission in a future table
// edit. Unknown roles degrade to viewer, which the table defines as all-false.
func (m *Model) Allowed(role domain.Role, cap domain.Capability) bool {
	if cap == domain.CapNone {
		return true
	}
	role = domain.NormalizeRole(role)
	if role == domain.RoleAdmin {
		return true
	}
	return m.table[role][cap]
}

// Grant is one cell of the permission matrix.
type Grant struct {
	Role       domain.Role       `json:"role"`
	Capability domain.Capability `json:"capability"`
	Allowed    bool              `json:"allowed"`
}

// Matrix enumerates every (role, capability) pair in a stable order, for the
// UI permission matrix and for exhaustiveness tests. The result reflects
// Allowed, so the admin override is visible in it.
func (m *Model) Matrix() []Grant {
	grants := make([]Grant, 0, len(domain.Roles())*len(domain.Capabilities()))
	for _, role := range domain.Roles() {
		for _, cap := range domain.Capabilities() {
			grants = append(grants, Grant{Role: role, Capability: cap, Allowed: m.Allowed(role, cap)})
		}
	}
	sort.SliceStable(grants, func(i, j int) bool {
		if grants[i].Role != grants[j].Role {
			return grants[i].Role < grants[j].Role
		}
		return grants[i].Capability < grants[j].Capability
	})
	return grants
}

func clone(t Table) Table {
	out := make(Table, len(t))
	for role, row := range t {
		rowCopy := make(map[domain.Capability]bool, len(row))
		for cap, allowed := range row {
			rowCopy[cap] = allowed
		}
		out[role] = rowCopy
	}
	return out
}
