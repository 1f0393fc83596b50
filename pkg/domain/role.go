package domain

import dErrors "labtrace/pkg/domain-errors"

// Role is the job function attached to an actor. An actor carries exactly one
// role per request; reassigning a role is itself a gated mutation on the user
// entity, never a change to the permission table.
type Role string

const (
	RoleAdmin         Role = "admin"
	RolePI            Role = "pi"
	RoleSeniorChemist Role = "senior_chemist"
	RoleJuniorChemist Role = "junior_chemist"
	RoleAnalyst       Role = "analyst"
	RoleQA            Role = "qa"
	// RoleViewer is the most restrictive role and the fallback for unknown
	// roles: all capabilities denied.
	RoleViewer Role = "viewer"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleAdmin:         true,
	RolePI:            true,
	RoleSeniorChemist: true,
	RoleJuniorChemist: true,
	RoleAnalyst:       true,
	RoleQA:            true,
	RoleViewer:        true,
}

// Roles returns every supported role in declaration order. The permission
// table must cover all of them.
func Roles() []Role {
	return []Role{
		RoleAdmin,
		RolePI,
		RoleSeniorChemist,
		RoleJuniorChemist,
		RoleAnalyst,
		RoleQA,
		RoleViewer,
	}
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
// Callers that want the restrictive fallback instead of an error should use
// NormalizeRole.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported role: "+s)
	}
	return r, nil
}

// NormalizeRole maps unknown roles to RoleViewer so permission checks degrade
// to deny-all rather than failing.
func NormalizeRole(r Role) Role {
	if validRoles[r] {
		return r
	}
	return RoleViewer
}

func (r Role) IsValid() bool { return validRoles[r] }

func (r Role) String() string { return string(r) }

// Actor is the authenticated caller as the core sees it: identity resolution
// (sessions, passwords, 2FA) happens upstream. Immutable per request.
type Actor struct {
	ID   ActorID
	Role Role
}
