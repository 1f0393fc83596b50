package lifecycle

import "labtrace/pkg/domain"

// Sample states.
const (
	SamplePending    State = "pending"
	SampleInProgress State = "in_progress"
	SampleCompleted  State = "completed"
	SampleQuarantine State = "quarantine"
	SampleInTransit  State = "in_transit"
	SampleArchived   State = "archived"
)

// Experiment states.
const (
	ExperimentDraft           State = "draft"
	ExperimentInReview        State = "in_review"
	ExperimentPendingApproval State = "pending_approval"
	ExperimentCompleted       State = "completed"
)

// Notebook states.
const (
	NotebookOpen   State = "open"
	NotebookClosed State = "closed"
)

// User states.
const (
	UserActive   State = "active"
	UserInactive State = "inactive"
)

// Molecule states.
const (
	MoleculePending   State = "pending"
	MoleculeValidated State = "validated"
)

// Transition names. Names are scoped per kind by the tables below; sharing
// the constants keeps audit details uniform across kinds.
const (
	Create     Transition = "create"
	Delete     Transition = "delete"
	Start      Transition = "start"
	Complete   Transition = "complete"
	Quarantine Transition = "quarantine"
	Transfer   Transition = "transfer"
	Arrive     Transition = "arrive"
	Archive    Transition = "archive"
	Submit     Transition = "submit"
	Approve    Transition = "approve"
	Close      Transition = "close"
	Open       Transition = "open"
	Deactivate Transition = "deactivate"
	Activate   Transition = "activate"
	Register   Transition = "register"
	Validate   Transition = "validate"
)

// sampleMachine: the quarantine toggle is a single transition name whose
// target depends on the from-state, so 1000 racing toggles replay cleanly
// against the table. Release from quarantine lands on pending, the same
// re-entry state a transit arrival uses. archived and deleted are terminal.
var sampleMachine = New(domain.KindSample, map[State]map[Transition]Rule{
	StateNonexistent: {
		Create: {To: SamplePending, Requires: domain.CapEditSamples},
	},
	SamplePending: {
		Start:      {To: SampleInProgress, Requires: domain.CapEditSamples},
		Quarantine: {To: SampleQuarantine, Requires: domain.CapNone},
		Transfer:   {To: SampleInTransit, Requires: domain.CapEditSamples},
		Delete:     {To: StateDeleted, Requires: domain.CapDeleteSamples},
	},
	SampleInProgress: {
		Complete:   {To: SampleCompleted, Requires: domain.CapEditSamples},
		Quarantine: {To: SampleQuarantine, Requires: domain.CapNone},
		Transfer:   {To: SampleInTransit, Requires: domain.CapEditSamples},
		Delete:     {To: StateDeleted, Requires: domain.CapDeleteSamples},
	},
	SampleCompleted: {
		Archive:    {To: SampleArchived, Requires: domain.CapEditSamples},
		Quarantine: {To: SampleQuarantine, Requires: domain.CapNone},
		Transfer:   {To: SampleInTransit, Requires: domain.CapEditSamples},
		Delete:     {To: StateDeleted, Requires: domain.CapDeleteSamples},
	},
	SampleQuarantine: {
		Quarantine: {To: SamplePending, Requires: domain.CapNone},
		Transfer:   {To: SampleInTransit, Requires: domain.CapEditSamples},
		Delete:     {To: StateDeleted, Requires: domain.CapDeleteSamples},
	},
	SampleInTransit: {
		Arrive:     {To: SamplePending, Requires: domain.CapEditSamples},
		Quarantine: {To: SampleQuarantine, Requires: domain.CapNone},
		Delete:     {To: StateDeleted, Requires: domain.CapDeleteSamples},
	},
	SampleArchived: {},
})

// experimentMachine: completed is terminal because an approved experiment is
// a signed record; it cannot be edited in place or deleted. in_review exists
// in the data model but no transition here produces it; a reviewer-assignment
// action outside this engine moves entries there, and from it only deletion
// is possible. Experiments carry no dedicated delete capability, so deletion
// is gated on the experiment authority capability.
var experimentMachine = New(domain.KindExperiment, map[State]map[Transition]Rule{
	StateNonexistent: {
		Create: {To: ExperimentDraft, Requires: domain.CapNone},
		Submit: {To: ExperimentPendingApproval, Requires: domain.CapNone},
	},
	ExperimentDraft: {
		Submit: {To: ExperimentPendingApproval, Requires: domain.CapNone},
		Delete: {To: StateDeleted, Requires: domain.CapApproveExperiments},
	},
	ExperimentInReview: {
		Delete: {To: StateDeleted, Requires: domain.CapApproveExperiments},
	},
	ExperimentPendingApproval: {
		Approve: {To: ExperimentCompleted, Requires: domain.CapApproveExperiments},
		Delete:  {To: StateDeleted, Requires: domain.CapApproveExperiments},
	},
	ExperimentCompleted: {},
})

// notebookMachine: the open/close toggle is asymmetric on purpose — each
// direction carries its own capability. Access grants are not transitions;
// the gateway handles them as a separate gated mutation. Notebook deletion
// belongs to platform administration.
var notebookMachine = New(domain.KindNotebook, map[State]map[Transition]Rule{
	StateNonexistent: {
		Create: {To: NotebookOpen, Requires: domain.CapOpenNotebooks},
	},
	NotebookOpen: {
		Close:  {To: NotebookClosed, Requires: domain.CapCloseNotebooks},
		Delete: {To: StateDeleted, Requires: domain.CapModifyPlatform},
	},
	NotebookClosed: {
		Open:   {To: NotebookOpen, Requires: domain.CapOpenNotebooks},
		Delete: {To: StateDeleted, Requires: domain.CapModifyPlatform},
	},
})

// userMachine: role reassignment is not a state transition (it is a separate
// mutation gated on canManageRoles); this table only governs account
// activation.
var userMachine = New(domain.KindUser, map[State]map[Transition]Rule{
	StateNonexistent: {
		Create: {To: UserActive, Requires: domain.CapManageUsers},
	},
	UserActive: {
		Deactivate: {To: UserInactive, Requires: domain.CapManageUsers},
		Delete:     {To: StateDeleted, Requires: domain.CapManageUsers},
	},
	UserInactive: {
		Activate: {To: UserActive, Requires: domain.CapManageUsers},
		Delete:   {To: StateDeleted, Requires: domain.CapManageUsers},
	},
})

var moleculeMachine = New(domain.KindMolecule, map[State]map[Transition]Rule{
	StateNonexistent: {
		Register: {To: MoleculePending, Requires: domain.CapEditMolecules},
	},
	MoleculePending: {
		Validate: {To: MoleculeValidated, Requires: domain.CapEditMolecules},
		Delete:   {To: StateDeleted, Requires: domain.CapDeleteMolecules},
	},
	MoleculeValidated: {
		Delete: {To: StateDeleted, Requires: domain.CapDeleteMolecules},
	},
})

var machines = map[domain.Kind]*Machine{
	domain.KindSample:     sampleMachine,
	domain.KindExperiment: experimentMachine,
	domain.KindNotebook:   notebookMachine,
	domain.KindUser:       userMachine,
	domain.KindMolecule:   moleculeMachine,
}

// ForKind returns the machine governing an entity kind.
func ForKind(kind domain.Kind) (*Machine, bool) {
	m, ok := machines[kind]
	return m, ok
}

// All returns every registered machine keyed by kind. The map is shared;
// callers must not mutate it.
func All() map[domain.Kind]*Machine {
	return machines
}
