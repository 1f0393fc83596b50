package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "labtrace/pkg/domain-errors"
)

func TestParseActorID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseActorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseActorID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseActorID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseActorID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, ActorID(valid), id)
	})
}

func TestActorID_JSONRoundTrip(t *testing.T) {
	id := NewActorID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(data))

	var back ActorID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)
}

func TestActorID_AsMapKey(t *testing.T) {
	a, b := NewActorID(), NewActorID()
	granted := map[ActorID]bool{a: true}

	data, err := json.Marshal(granted)
	require.NoError(t, err)

	var back map[ActorID]bool
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back[a])
	assert.False(t, back[b])
}
