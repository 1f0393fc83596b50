package audit

import "context"

// Store is the append-only persistence contract. Append assigns Seq, ID and
// Category before the record is durable; Query returns records in ascending
// Seq order. There is deliberately no update or delete.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	Query(ctx context.Context, f Filter) ([]Record, error)
}
