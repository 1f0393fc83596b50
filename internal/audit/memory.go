package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore keeps the trail in process memory. Records are value types,
// so the slice never leaks mutable state to callers.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
	seq     uint64

	failAppends error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAppends != nil {
		return s.failAppends
	}

	s.seq++
	rec.Seq = s.seq
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Category == "" {
		rec.Category = rec.Outcome.Category()
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, f Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, r := range s.records {
		if r.Seq <= f.AfterSeq {
			continue
		}
		if !f.Matches(r) {
			continue
		}
		out = append(out, r)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// FailAppends makes every subsequent Append return err. Used by tests to
// exercise the fail-closed path.
func (s *InMemoryStore) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAppends = err
}
