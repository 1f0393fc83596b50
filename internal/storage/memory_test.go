package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labtrace/internal/entity"
	"labtrace/internal/lifecycle"
	"labtrace/pkg/domain"
	"labtrace/pkg/platform/sentinel"
)

func newSample(t *testing.T, seq int) entity.Record {
	t.Helper()
	actor := domain.Actor{ID: domain.NewActorID(), Role: domain.RolePI}
	rec, err := entity.New(domain.KindSample, seq, entity.Payload{"name": "Batch"}, actor, time.Now())
	require.NoError(t, err)
	rec.SetStatus(lifecycle.SamplePending)
	return rec
}

func TestInMemoryStore_SaveAndLoad(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	rec := newSample(t, 1)

	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, domain.KindSample, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), got.ID())
	assert.Equal(t, lifecycle.SamplePending, got.Status())
}

func TestInMemoryStore_LoadUnknownIsNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Load(context.Background(), domain.KindSample, "ORG-2024-999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestInMemoryStore_LoadReturnsACopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	rec := newSample(t, 1)
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, domain.KindSample, rec.ID())
	require.NoError(t, err)
	got.SetStatus(lifecycle.SampleInProgress)

	again, err := store.Load(ctx, domain.KindSample, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SamplePending, again.Status())
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	rec := newSample(t, 1)
	require.NoError(t, store.Save(ctx, rec))

	require.NoError(t, store.Delete(ctx, domain.KindSample, rec.ID()))

	_, err := store.Load(ctx, domain.KindSample, rec.ID())
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))

	err = store.Delete(ctx, domain.KindSample, rec.ID())
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestInMemoryStore_NextSeqNeverReuses(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first, err := store.NextSeq(ctx, domain.KindSample)
	require.NoError(t, err)
	second, err := store.NextSeq(ctx, domain.KindSample)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	// Sequences are per kind.
	other, err := store.NextSeq(ctx, domain.KindMolecule)
	require.NoError(t, err)
	assert.Equal(t, first, other)
}

func TestInMemoryStore_ConcurrentNextSeq(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := store.NextSeq(ctx, domain.KindSample)
			assert.NoError(t, err)
			mu.Lock()
			assert.False(t, seen[seq], "sequence %d issued twice", seq)
			seen[seq] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 200)
}

func TestInMemoryStore_RunInTxCommits(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	rec := newSample(t, 1)

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		return store.Save(ctx, rec)
	})
	require.NoError(t, err)

	_, err = store.Load(ctx, domain.KindSample, rec.ID())
	assert.NoError(t, err)
}

func TestInMemoryStore_RunInTxRollsBackOnError(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	existing := newSample(t, 1)
	doomed := newSample(t, 2)
	require.NoError(t, store.Save(ctx, existing))
	require.NoError(t, store.Save(ctx, doomed))

	fresh := newSample(t, 3)
	boom := errors.New("trail down")

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		moved := existing.Clone()
		moved.SetStatus(lifecycle.SampleInProgress)
		if err := store.Save(ctx, moved); err != nil {
			return err
		}
		if err := store.Save(ctx, fresh); err != nil {
			return err
		}
		if err := store.Delete(ctx, domain.KindSample, doomed.ID()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The overwrite is restored, the insert is gone, the delete is undone.
	kept, err := store.Load(ctx, domain.KindSample, existing.ID())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.SamplePending, kept.Status())

	_, err = store.Load(ctx, domain.KindSample, fresh.ID())
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))

	_, err = store.Load(ctx, domain.KindSample, doomed.ID())
	assert.NoError(t, err)
}

func TestInMemoryStore_FailSaves(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	boom := errors.New("disk full")
	store.FailSaves(boom)

	err := store.Save(ctx, newSample(t, 1))
	assert.True(t, errors.Is(err, boom))

	store.FailSaves(nil)
	assert.NoError(t, store.Save(ctx, newSample(t, 2)))
}
