// Package storage defines the persistence contract for domain entities.
// Stores are interface-driven so the gateway stays testable and persistence
// can move between in-memory, PostgreSQL, or external backends without
// touching business code.
package storage

import (
	"context"

	"labtrace/internal/entity"
	"labtrace/pkg/domain"
)

// Store is the external storage collaborator the gateway persists through.
// Implementations return sentinel.ErrNotFound for unknown ids and must be
// safe for concurrent use; the gateway serializes per entity, not globally.
type Store interface {
	// Load returns the current record for (kind, id).
	Load(ctx context.Context, kind domain.Kind, id domain.EntityID) (entity.Record, error)

	// Save persists the record, overwriting any previous version.
	Save(ctx context.Context, rec entity.Record) error

	// Delete removes the record. Deleting an unknown id is ErrNotFound.
	Delete(ctx context.Context, kind domain.Kind, id domain.EntityID) error

	// NextSeq issues the next id sequence number for a kind. Sequences are
	// never reused, even after deletions, so ids stay unique forever.
	NextSeq(ctx context.Context, kind domain.Kind) (int, error)
}

// TxRunner executes fn atomically with respect to persistence: either every
// write inside fn commits, or none do. The in-memory store satisfies this
// trivially; the PostgreSQL store wraps fn in a transaction carried through
// the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
