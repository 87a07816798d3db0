package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

func newEnvelope(state models.ProcessingState, receivedAt time.Time) *models.Envelope {
	return &models.Envelope{
		ID:         uuid.New().String(),
		ReceivedAt: receivedAt,
		Source:     "whatsapp",
		Category:   "message",
		Payload:    []byte(`{"text":"hello"}`),
		State:      state,
	}
}

func TestMemoryStore_PersistAndGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	env := newEnvelope(models.StatePending, time.Now().UTC())
	require.NoError(t, st.Persist(ctx, env))

	got, err := st.Get(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, env.Source, got.Source)
	assert.Equal(t, env.Payload, got.Payload)
	assert.Equal(t, models.StatePending, got.State)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.Get(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PersistOverwrites(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	env := newEnvelope(models.StatePending, time.Now().UTC())
	require.NoError(t, st.Persist(ctx, env))

	env.State = models.StateCompleted
	env.AttemptCount = 2
	env.LastError = ""
	require.NoError(t, st.Persist(ctx, env))

	got, err := st.Get(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, got.State)
	assert.Equal(t, 2, got.AttemptCount)
	assert.Equal(t, 1, st.Len())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	env := newEnvelope(models.StatePending, time.Now().UTC())
	require.NoError(t, st.Persist(ctx, env))

	got1, err := st.Get(ctx, env.ID)
	require.NoError(t, err)
	got1.State = models.StateFailed

	got2, err := st.Get(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, got2.State, "mutating a returned envelope must not affect the store")
}

func TestMemoryStore_LoadUnfinished(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	second := newEnvelope(models.StateProcessing, now.Add(-1*time.Minute))
	first := newEnvelope(models.StatePending, now.Add(-2*time.Minute))
	completed := newEnvelope(models.StateCompleted, now.Add(-3*time.Minute))
	failed := newEnvelope(models.StateFailed, now.Add(-4*time.Minute))

	for _, env := range []*models.Envelope{second, first, completed, failed} {
		require.NoError(t, st.Persist(ctx, env))
	}

	envs, err := st.LoadUnfinished(ctx)
	require.NoError(t, err)
	require.Len(t, envs, 2)

	// Oldest first
	assert.Equal(t, first.ID, envs[0].ID)
	assert.Equal(t, second.ID, envs[1].ID)
}

func TestMemoryStore_ListByState(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	var completed []*models.Envelope
	for i := 0; i < 4; i++ {
		env := newEnvelope(models.StateCompleted, now.Add(-time.Duration(4-i)*time.Minute))
		completed = append(completed, env)
		require.NoError(t, st.Persist(ctx, env))
	}
	require.NoError(t, st.Persist(ctx, newEnvelope(models.StatePending, now)))

	envs, err := st.ListByState(ctx, models.StateCompleted, 0)
	require.NoError(t, err)
	require.Len(t, envs, 4)
	assert.Equal(t, completed[0].ID, envs[0].ID, "oldest completed envelope should come first")

	envs, err = st.ListByState(ctx, models.StateCompleted, 2)
	require.NoError(t, err)
	assert.Len(t, envs, 2)

	envs, err = st.ListByState(ctx, models.StateFailed, 0)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestMemoryStore_Delete(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	env := newEnvelope(models.StateCompleted, time.Now().UTC())
	require.NoError(t, st.Persist(ctx, env))

	require.NoError(t, st.Delete(ctx, env.ID))
	_, err := st.Get(ctx, env.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.Delete(ctx, env.ID), ErrNotFound)
}
