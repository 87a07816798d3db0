package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
	"github.com/bizlink-systems/bizlink-webhooks/internal/store"
)

func seedEnvelope(t *testing.T, st store.Store, state models.ProcessingState, receivedAt time.Time) *models.Envelope {
	t.Helper()
	env := &models.Envelope{
		ID:         uuid.New().String(),
		ReceivedAt: receivedAt,
		Source:     "whatsapp",
		Category:   "message",
		Payload:    []byte(`{}`),
		State:      state,
	}
	require.NoError(t, st.Persist(context.Background(), env))
	return env
}

func TestRecover_RequeuesUnfinished(t *testing.T) {
	st := store.NewMemoryStore()
	now := time.Now().UTC()

	pending1 := seedEnvelope(t, st, models.StatePending, now.Add(-3*time.Minute))
	pending2 := seedEnvelope(t, st, models.StatePending, now.Add(-2*time.Minute))
	interrupted := seedEnvelope(t, st, models.StateProcessing, now.Add(-1*time.Minute))
	done := seedEnvelope(t, st, models.StateCompleted, now.Add(-4*time.Minute))
	dead := seedEnvelope(t, st, models.StateFailed, now.Add(-5*time.Minute))

	h := newCountingHandler()
	p, err := New(st, h.Handle, testConfig())
	require.NoError(t, err)
	defer p.Stop()

	recovered, err := p.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, recovered)

	for _, id := range []string{pending1.ID, pending2.ID, interrupted.ID} {
		waitForState(t, st, id, models.StateCompleted)
		assert.Equal(t, 1, h.count(id), "recovered envelope should be handled exactly once")
	}

	// Terminal envelopes are untouched
	env, err := st.Get(context.Background(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, env.State)
	assert.Zero(t, h.count(done.ID))

	env, err = st.Get(context.Background(), dead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, env.State)
	assert.Zero(t, h.count(dead.ID))
}

func TestRecover_EmptyStore(t *testing.T) {
	h := newCountingHandler()
	p, err := New(store.NewMemoryStore(), h.Handle, testConfig())
	require.NoError(t, err)
	defer p.Stop()

	recovered, err := p.Recover(context.Background())
	require.NoError(t, err)
	assert.Zero(t, recovered)
}

func TestRecover_PreservesAttemptCount(t *testing.T) {
	st := store.NewMemoryStore()

	env := seedEnvelope(t, st, models.StateProcessing, time.Now().UTC())
	env.AttemptCount = 2
	require.NoError(t, st.Persist(context.Background(), env))

	h := newCountingHandler()
	p, err := New(st, h.Handle, testConfig())
	require.NoError(t, err)
	defer p.Stop()

	recovered, err := p.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	final := waitForState(t, st, env.ID, models.StateCompleted)
	assert.Equal(t, 3, final.AttemptCount, "redelivery counts as a new attempt on top of the interrupted ones")
}
