// Package entity holds the domain records the lifecycle engine manages and
// the storage collaborator contract. The engine defines what must be stored;
// how it is stored is the store implementation's concern.
package entity

import (
	"time"

	"labtrace/internal/lifecycle"
	"labtrace/pkg/domain"
)

// Record is the least an entity must expose for the authorization gateway to
// manage it: identity, kind, and a mutable lifecycle state. Clone returns a
// deep copy so stores can hand out records without aliasing their internals.
type Record interface {
	ID() domain.EntityID
	Kind() domain.Kind
	Status() lifecycle.State
	SetStatus(lifecycle.State)
	Clone() Record
}

// SampleMaterial distinguishes the two chemistry tracks; it also selects the
// id prefix (ORG / INO).
type SampleMaterial string

const (
	MaterialOrganic   SampleMaterial = "organic"
	MaterialInorganic SampleMaterial = "inorganic"
)

// CustodyEvent is one handling step in a sample's chain of custody. The chain
// is ordered, append-only data; it is displayed by the UI and never edited.
type CustodyEvent struct {
	Action  string         `json:"action"`
	ActorID domain.ActorID `json:"actor_id"`
	Detail  string         `json:"detail,omitempty"`
	At      time.Time      `json:"at"`
}

// Sample is a tracked laboratory specimen. The id is generated from the
// material prefix, year, and a per-kind sequence, and never changes.
type Sample struct {
	SampleID    domain.EntityID `json:"id"`
	Name        string          `json:"name"`
	Material    SampleMaterial  `json:"material"`
	State       lifecycle.State `json:"status"`
	Location    string          `json:"location"`
	Temperature string          `json:"temperature,omitempty"`
	Project     string          `json:"project,omitempty"`
	AssigneeID  domain.ActorID  `json:"assignee_id"`
	Custody     []CustodyEvent  `json:"custody_chain"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (s *Sample) ID() domain.EntityID          { return s.SampleID }
func (s *Sample) Kind() domain.Kind            { return domain.KindSample }
func (s *Sample) Status() lifecycle.State      { return s.State }
func (s *Sample) SetStatus(st lifecycle.State) { s.State = st }

func (s *Sample) Clone() Record {
	out := *s
	out.Custody = append([]CustodyEvent(nil), s.Custody...)
	return &out
}

// AppendCustody records a handling event at the end of the chain.
func (s *Sample) AppendCustody(ev CustodyEvent) {
	s.Custody = append(s.Custody, ev)
}

// Experiment is an ELN entry. Yield is only meaningful once the experiment
// reaches completed; ApproverID is set by the approve transition.
type Experiment struct {
	ExperimentID domain.EntityID `json:"id"`
	Title        string          `json:"title"`
	State        lifecycle.State `json:"status"`
	AuthorID     domain.ActorID  `json:"author_id"`
	ApproverID   domain.ActorID  `json:"approver_id,omitempty"`
	Yield        *float64        `json:"yield,omitempty"`
	Project      string          `json:"project,omitempty"`
	Objective    string          `json:"objective,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (e *Experiment) ID() domain.EntityID          { return e.ExperimentID }
func (e *Experiment) Kind() domain.Kind            { return domain.KindExperiment }
func (e *Experiment) Status() lifecycle.State      { return e.State }
func (e *Experiment) SetStatus(st lifecycle.State) { e.State = st }

func (e *Experiment) Clone() Record {
	out := *e
	if e.Yield != nil {
		y := *e.Yield
		out.Yield = &y
	}
	return &out
}

// Notebook is an ELN notebook. Granted holds users with access beyond the
// owner; grants are managed as a separate gated mutation, independent of the
// open/closed state.
type Notebook struct {
	NotebookID domain.EntityID         `json:"id"`
	Name       string                  `json:"name"`
	State      lifecycle.State         `json:"status"`
	OwnerID    domain.ActorID          `json:"owner_id"`
	Granted    map[domain.ActorID]bool `json:"granted_user_ids"`
	CreatedAt  time.Time               `json:"created_at"`
}

func (n *Notebook) ID() domain.EntityID          { return n.NotebookID }
func (n *Notebook) Kind() domain.Kind            { return domain.KindNotebook }
func (n *Notebook) Status() lifecycle.State      { return n.State }
func (n *Notebook) SetStatus(st lifecycle.State) { n.State = st }

func (n *Notebook) Clone() Record {
	out := *n
	out.Granted = make(map[domain.ActorID]bool, len(n.Granted))
	for id, ok := range n.Granted {
		out.Granted[id] = ok
	}
	return &out
}

// User is a laboratory account. Role lives on the user record; changing it is
// a separate mutation gated on canManageRoles, not a state transition.
type User struct {
	UserID    domain.EntityID `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      domain.Role     `json:"role"`
	State     lifecycle.State `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (u *User) ID() domain.EntityID          { return u.UserID }
func (u *User) Kind() domain.Kind            { return domain.KindUser }
func (u *User) Status() lifecycle.State      { return u.State }
func (u *User) SetStatus(st lifecycle.State) { u.State = st }

func (u *User) Clone() Record {
	out := *u
	return &out
}

// Molecule is a registered structure. Validation moves it from pending to
// validated; both edits and validation are gated on canEditMolecules.
type Molecule struct {
	MoleculeID domain.EntityID `json:"id"`
	Name       string          `json:"name"`
	Formula    string          `json:"formula,omitempty"`
	SMILES     string          `json:"smiles,omitempty"`
	Weight     float64         `json:"mw,omitempty"`
	State      lifecycle.State `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (m *Molecule) ID() domain.EntityID          { return m.MoleculeID }
func (m *Molecule) Kind() domain.Kind            { return domain.KindMolecule }
func (m *Molecule) Status() lifecycle.State      { return m.State }
func (m *Molecule) SetStatus(st lifecycle.State) { m.State = st }

func (m *Molecule) Clone() Record {
	out := *m
	return &out
}
