// Package store provides durable keyed storage for event envelopes. The
// store is the authoritative record of pipeline state across restarts; every
// write is a whole-record overwrite keyed by envelope ID.
package store

import (
	"context"
	"errors"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

var (
	ErrNotFound = errors.New("envelope not found")
)

type Store interface {
	// Persist writes the full envelope to stable storage. It does not return
	// until the write is durable; a returned error means the envelope must be
	// treated as not recorded.
	Persist(ctx context.Context, env *models.Envelope) error

	// Get returns the envelope with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Envelope, error)

	// LoadUnfinished returns every envelope in state pending or processing,
	// ordered by received_at ascending. Unreadable records are skipped with a
	// logged warning rather than failing the whole load.
	LoadUnfinished(ctx context.Context) ([]*models.Envelope, error)

	// ListByState returns up to limit envelopes in the given state, ordered by
	// received_at ascending.
	ListByState(ctx context.Context, state models.ProcessingState, limit int) ([]*models.Envelope, error)

	// Delete removes one record. Deleting an unknown ID returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	Close()
}
