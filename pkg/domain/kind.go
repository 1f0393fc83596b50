package domain

import dErrors "labtrace/pkg/domain-errors"

// Kind names one of the entity families the lifecycle engine manages. Each
// kind has its own state machine; the audit trail records the kind alongside
// the entity id so records stay meaningful after the entity is deleted.
type Kind string

const (
	KindSample     Kind = "sample"
	KindExperiment Kind = "experiment"
	KindNotebook   Kind = "notebook"
	KindUser       Kind = "user"
	KindMolecule   Kind = "molecule"
)

// validKinds is the single source of truth for managed entity kinds.
var validKinds = map[Kind]bool{
	KindSample:     true,
	KindExperiment: true,
	KindNotebook:   true,
	KindUser:       true,
	KindMolecule:   true,
}

// Kinds returns all managed kinds in declaration order.
func Kinds() []Kind {
	return []Kind{KindSample, KindExperiment, KindNotebook, KindUser, KindMolecule}
}

// ParseKind constructs a Kind from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "entity kind cannot be empty")
	}
	k := Kind(s)
	if !validKinds[k] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown entity kind: "+s)
	}
	return k, nil
}

func (k Kind) IsValid() bool { return validKinds[k] }

func (k Kind) String() string { return string(k) }
