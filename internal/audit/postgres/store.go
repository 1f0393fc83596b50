// Package postgres persists the audit trail in an append-only table. Seq is
// a BIGSERIAL so ordering is issued by the database, not the process.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"labtrace/internal/audit"
	"labtrace/internal/lifecycle"
	"labtrace/pkg/domain"
	txcontext "labtrace/pkg/platform/tx"
)

const defaultTimeout = 5 * time.Second

type Store struct {
	db      *sql.DB
	timeout time.Duration
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, timeout: defaultTimeout}
}

type queryExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer prefers a transaction carried in the context so an audit append and
// the entity write it describes commit as one unit.
func (s *Store) execer(ctx context.Context) queryExecer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, rec *audit.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Category == "" {
		rec.Category = rec.Outcome.Category()
	}

	row := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO audit_events (
			id, event_time, actor_id, actor_role, capability,
			entity_kind, entity_id, transition, from_state, to_state,
			outcome, category, detail, request_id, client_ip, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING seq`,
		rec.ID, rec.Timestamp, rec.ActorID.String(), string(rec.ActorRole), string(rec.Capability),
		rec.EntityKind.String(), string(rec.EntityID), string(rec.Transition), string(rec.FromState), string(rec.ToState),
		string(rec.Outcome), string(rec.Category), rec.Detail, rec.RequestID, rec.ClientIP, rec.UserAgent,
	)
	if err := row.Scan(&rec.Seq); err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, f audit.Filter) ([]audit.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.AfterSeq > 0 {
		add("seq > $%d", f.AfterSeq)
	}
	if f.ActorID != nil {
		add("actor_id = $%d", f.ActorID.String())
	}
	if f.EntityKind != nil {
		add("entity_kind = $%d", f.EntityKind.String())
	}
	if f.EntityID != nil {
		add("entity_id = $%d", string(*f.EntityID))
	}
	if f.Category != nil {
		add("category = $%d", string(*f.Category))
	}
	if !f.From.IsZero() {
		add("event_time >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("event_time <= $%d", f.To)
	}

	q := `
		SELECT seq, id, event_time, actor_id, actor_role, capability,
		       entity_kind, entity_id, transition, from_state, to_state,
		       outcome, category, detail, request_id, client_ip, user_agent
		FROM audit_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY seq ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.execer(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (audit.Record, error) {
	var rec audit.Record
	var actorID, actorRole, capability string
	var kind, entityID, transition string
	var fromState, toState, outcome, category string
	if err := rows.Scan(
		&rec.Seq, &rec.ID, &rec.Timestamp, &actorID, &actorRole, &capability,
		&kind, &entityID, &transition, &fromState, &toState,
		&outcome, &category, &rec.Detail, &rec.RequestID, &rec.ClientIP, &rec.UserAgent,
	); err != nil {
		return audit.Record{}, fmt.Errorf("scanning audit event: %w", err)
	}

	if err := rec.ActorID.UnmarshalText([]byte(actorID)); err != nil {
		return audit.Record{}, fmt.Errorf("scanning audit actor id: %w", err)
	}
	rec.ActorRole = domain.Role(actorRole)
	rec.Capability = domain.Capability(capability)
	rec.EntityKind = domain.Kind(kind)
	rec.EntityID = domain.EntityID(entityID)
	rec.Transition = lifecycle.Transition(transition)
	rec.FromState = lifecycle.State(fromState)
	rec.ToState = lifecycle.State(toState)
	rec.Outcome = audit.Outcome(outcome)
	rec.Category = audit.Category(category)
	return rec, nil
}
