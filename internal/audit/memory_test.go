package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labtrace/internal/lifecycle"
	"labtrace/pkg/domain"
)

func newRecord(actor domain.Actor, kind domain.Kind, id domain.EntityID, outcome Outcome) *Record {
	return &Record{
		Timestamp:  time.Now(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		EntityKind: kind,
		EntityID:   id,
		Transition: lifecycle.Create,
		FromState:  lifecycle.StateNonexistent,
		Outcome:    outcome,
	}
}

func TestInMemoryStore_AppendAssignsIdentity(t *testing.T) {
	store := NewInMemoryStore()
	actor := domain.Actor{ID: domain.NewActorID(), Role: domain.RolePI}

	rec := newRecord(actor, domain.KindSample, "ORG-2024-001", OutcomeAllowed)
	require.NoError(t, store.Append(context.Background(), rec))

	assert.Equal(t, uint64(1), rec.Seq)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, CategoryCompliance, rec.Category)
}

func TestInMemoryStore_CategoryFollowsOutcome(t *testing.T) {
	store := NewInMemoryStore()
	actor := domain.Actor{ID: domain.NewActorID(), Role: domain.RoleJuniorChemist}

	denied := newRecord(actor, domain.KindSample, "ORG-2024-001", OutcomeDeniedPermission)
	require.NoError(t, store.Append(context.Background(), denied))
	assert.Equal(t, CategorySecurity, denied.Category)

	illegal := newRecord(actor, domain.KindSample, "ORG-2024-001", OutcomeDeniedTransition)
	require.NoError(t, store.Append(context.Background(), illegal))
	assert.Equal(t, CategorySecurity, illegal.Category)
}

func TestInMemoryStore_QueryOrderAndFilters(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	pi := domain.Actor{ID: domain.NewActorID(), Role: domain.RolePI}
	qa := domain.Actor{ID: domain.NewActorID(), Role: domain.RoleQA}

	require.NoError(t, store.Append(ctx, newRecord(pi, domain.KindSample, "ORG-2024-001", OutcomeAllowed)))
	require.NoError(t, store.Append(ctx, newRecord(qa, domain.KindSample, "ORG-2024-001", OutcomeDeniedPermission)))
	require.NoError(t, store.Append(ctx, newRecord(pi, domain.KindExperiment, "EXP-2024-001", OutcomeAllowed)))

	all, err := store.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Seq, all[i-1].Seq)
	}

	byActor, err := store.Query(ctx, Filter{ActorID: &pi.ID})
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	kind := domain.KindExperiment
	byKind, err := store.Query(ctx, Filter{EntityKind: &kind})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, domain.EntityID("EXP-2024-001"), byKind[0].EntityID)

	cat := CategorySecurity
	byCategory, err := store.Query(ctx, Filter{Category: &cat})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, OutcomeDeniedPermission, byCategory[0].Outcome)
}

func TestInMemoryStore_CursorResumesWhereItLeftOff(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	actor := domain.Actor{ID: domain.NewActorID(), Role: domain.RoleAdmin}

	for range 5 {
		require.NoError(t, store.Append(ctx, newRecord(actor, domain.KindUser, "USR-001", OutcomeAllowed)))
	}

	first, err := store.Query(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := store.Query(ctx, Filter{AfterSeq: first[1].Seq})
	require.NoError(t, err)
	require.Len(t, rest, 3)
	assert.Equal(t, first[1].Seq+1, rest[0].Seq)
}

func TestInMemoryStore_ConcurrentAppendsKeepSeqStrict(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	actor := domain.Actor{ID: domain.NewActorID(), Role: domain.RoleAdmin}

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Append(ctx, newRecord(actor, domain.KindSample, "ORG-2024-001", OutcomeAllowed))
		}()
	}
	wg.Wait()

	all, err := store.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 100)
	seen := make(map[uint64]bool, 100)
	for _, r := range all {
		assert.False(t, seen[r.Seq])
		seen[r.Seq] = true
	}
}
