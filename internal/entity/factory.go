package entity

import (
	"time"

	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
)

// Payload carries the caller-supplied attributes of a mutation intent. The
// gateway passes it through untyped; the factory and the per-kind effects
// pull out what they understand and ignore the rest.
type Payload map[string]string

// New constructs a fresh record for a create transition. The caller supplies
// the store-issued sequence number; the state is set afterwards by the
// gateway from the transition table, so records leave here in the virtual
// nonexistent state.
//
// Errors: CodeInvalidInput on an unknown kind or an invalid role payload for
// user records.
func New(kind domain.Kind, seq int, p Payload, actor domain.Actor, now time.Time) (Record, error) {
	switch kind {
	case domain.KindSample:
		material := SampleMaterial(p["material"])
		switch material {
		case "":
			material = MaterialOrganic
		case MaterialOrganic, MaterialInorganic:
		default:
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported material: "+p["material"])
		}
		s := &Sample{
			SampleID:    NewSampleID(material, now, seq),
			Name:        p["name"],
			Material:    material,
			Location:    p["location"],
			Temperature: p["temperature"],
			Project:     p["project"],
			AssigneeID:  actor.ID,
			CreatedAt:   now,
		}
		s.AppendCustody(CustodyEvent{Action: "created", ActorID: actor.ID, At: now})
		return s, nil

	case domain.KindExperiment:
		return &Experiment{
			ExperimentID: NewExperimentID(now, seq),
			Title:        p["title"],
			AuthorID:     actor.ID,
			Project:      p["project"],
			Objective:    p["objective"],
			CreatedAt:    now,
		}, nil

	case domain.KindNotebook:
		return &Notebook{
			NotebookID: NewFlatID(kind, seq),
			Name:       p["name"],
			OwnerID:    actor.ID,
			Granted:    map[domain.ActorID]bool{},
			CreatedAt:  now,
		}, nil

	case domain.KindUser:
		role := domain.Role(p["role"])
		if role == "" {
			role = domain.RoleJuniorChemist
		}
		if !role.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported role: "+p["role"])
		}
		return &User{
			UserID:    NewFlatID(kind, seq),
			Name:      p["name"],
			Email:     p["email"],
			Role:      role,
			CreatedAt: now,
		}, nil

	case domain.KindMolecule:
		return &Molecule{
			MoleculeID: NewFlatID(kind, seq),
			Name:       p["name"],
			Formula:    p["formula"],
			SMILES:     p["smiles"],
			Weight:     parseFloat(p["mw"]),
			CreatedAt:  now,
		}, nil
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown entity kind: "+kind.String())
}
