package audit

import (
	"context"
	"log/slog"

	dErrors "labtrace/pkg/domain-errors"
)

// Service fronts the store with fail-closed semantics and an optional export
// feed. If Append cannot make a record durable the whole mutation must fail,
// so the error carries CodePersistenceFailure for the caller to surface.
type Service struct {
	store  Store
	logger *slog.Logger
	feed   chan Record
}

// NewService wires the trail. feedSize > 0 enables the export feed; records
// are offered to it best-effort after durable append, so a slow exporter can
// never block or fail a mutation.
func NewService(store Store, logger *slog.Logger, feedSize int) *Service {
	s := &Service{store: store, logger: logger}
	if feedSize > 0 {
		s.feed = make(chan Record, feedSize)
	}
	return s
}

func (s *Service) Append(ctx context.Context, rec *Record) error {
	if err := s.store.Append(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			slog.String("entity_kind", rec.EntityKind.String()),
			slog.String("entity_id", string(rec.EntityID)),
			slog.String("outcome", string(rec.Outcome)),
			slog.String("error", err.Error()),
		)
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "audit trail unavailable")
	}

	if s.feed != nil {
		select {
		case s.feed <- *rec:
		default:
			s.logger.WarnContext(ctx, "audit export feed full, dropping record",
				slog.Uint64("seq", rec.Seq),
			)
		}
	}
	return nil
}

func (s *Service) Query(ctx context.Context, f Filter) ([]Record, error) {
	recs, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "audit trail query failed")
	}
	return recs, nil
}

// Feed exposes the export channel for a publisher to drain. Nil when the
// feed is disabled.
func (s *Service) Feed() <-chan Record {
	return s.feed
}
