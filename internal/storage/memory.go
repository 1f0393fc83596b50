package storage

import (
	"context"
	"sync"

	"labtrace/internal/entity"
	"labtrace/pkg/domain"
	"labtrace/pkg/platform/sentinel"
)

// InMemoryStore keeps the default deployment dependency-free and gives tests
// a fast storage collaborator. It intentionally favors clarity over
// performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Kind]map[domain.EntityID]entity.Record
	seqs    map[domain.Kind]int

	// failSaves makes Save fail, for exercising persistence-failure paths
	// in tests.
	failSaves error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[domain.Kind]map[domain.EntityID]entity.Record),
		seqs:    make(map[domain.Kind]int),
	}
}

// txJournal collects undo steps for mutations made inside RunInTx. It rides
// in the context the same way the postgres stores carry their transaction.
type txJournal struct {
	undo []func()
}

type txJournalKey struct{}

func journalFrom(ctx context.Context) *txJournal {
	j, _ := ctx.Value(txJournalKey{}).(*txJournal)
	return j
}

func (s *InMemoryStore) Load(_ context.Context, kind domain.Kind, id domain.EntityID) (entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[kind][id]; ok {
		return rec.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Save(ctx context.Context, rec entity.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves != nil {
		return s.failSaves
	}
	kind, id := rec.Kind(), rec.ID()
	if s.records[kind] == nil {
		s.records[kind] = make(map[domain.EntityID]entity.Record)
	}
	if j := journalFrom(ctx); j != nil {
		if prior, ok := s.records[kind][id]; ok {
			j.undo = append(j.undo, func() { s.records[kind][id] = prior })
		} else {
			j.undo = append(j.undo, func() { delete(s.records[kind], id) })
		}
	}
	// Store a clone so later caller mutations don't leak in.
	s.records[kind][id] = rec.Clone()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, kind domain.Kind, id domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prior, ok := s.records[kind][id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if j := journalFrom(ctx); j != nil {
		j.undo = append(j.undo, func() { s.records[kind][id] = prior })
	}
	delete(s.records[kind], id)
	return nil
}

func (s *InMemoryStore) NextSeq(_ context.Context, kind domain.Kind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[kind]++
	return s.seqs[kind], nil
}

// RunInTx satisfies TxRunner. Saves and deletes made through fn are
// journalled and undone when fn fails, so the entity write and the audit
// append commit or vanish together, matching the postgres transaction.
// Sequence numbers are not rolled back, like database sequences.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	j := &txJournal{}
	err := fn(context.WithValue(ctx, txJournalKey{}, j))
	if err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
	}
	return err
}

// FailSaves makes every subsequent Save return err (nil restores normal
// behavior). Test hook only.
func (s *InMemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = err
}
