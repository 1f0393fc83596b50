// Package postgres persists entities as JSON documents keyed by (kind, id).
// The document shape is owned by internal/entity; this store never inspects
// it, which keeps schema churn out of SQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labtrace/internal/entity"
	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
	"labtrace/pkg/platform/sentinel"
	txcontext "labtrace/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Store implements storage.Store and storage.TxRunner on PostgreSQL via
// database/sql (lib/pq driver).
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer prefers a context-carried transaction so entity writes and audit
// appends land in one commit unit.
func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Load(ctx context.Context, kind domain.Kind, id domain.EntityID) (entity.Record, error) {
	var doc []byte
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT document FROM entities WHERE kind = $1 AND id = $2`,
		kind.String(), id.String(),
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	return unmarshalRecord(kind, doc)
}

func (s *Store) Save(ctx context.Context, rec entity.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", rec.Kind(), rec.ID(), err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO entities (kind, id, status, document, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (kind, id)
		DO UPDATE SET status = EXCLUDED.status, document = EXCLUDED.document, updated_at = now()
	`, rec.Kind().String(), rec.ID().String(), string(rec.Status()), doc)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", rec.Kind(), rec.ID(), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, kind domain.Kind, id domain.EntityID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM entities WHERE kind = $1 AND id = $2`,
		kind.String(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) NextSeq(ctx context.Context, kind domain.Kind) (int, error) {
	var seq int
	err := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO entity_sequences (kind, seq) VALUES ($1, 1)
		ON CONFLICT (kind) DO UPDATE SET seq = entity_sequences.seq + 1
		RETURNING seq
	`, kind.String()).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq for %s: %w", kind, err)
	}
	return seq, nil
}

// RunInTx opens a transaction, stores it in the context, runs fn, and commits.
// Any error inside fn rolls the whole unit back, including audit appends that
// joined via the same context.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := s.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func unmarshalRecord(kind domain.Kind, doc []byte) (entity.Record, error) {
	var rec entity.Record
	switch kind {
	case domain.KindSample:
		rec = &entity.Sample{}
	case domain.KindExperiment:
		rec = &entity.Experiment{}
	case domain.KindNotebook:
		rec = &entity.Notebook{}
	case domain.KindUser:
		rec = &entity.User{}
	case domain.KindMolecule:
		rec = &entity.Molecule{}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", kind, err)
	}
	return rec, nil
}
