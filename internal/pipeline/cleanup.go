package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bizlink-systems/bizlink-webhooks/internal/logging"
	"github.com/bizlink-systems/bizlink-webhooks/internal/metrics"
	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

// cleanupBatchSize bounds how many completed envelopes a single store scan
// returns; cleanup loops until no deletable envelopes remain.
const cleanupBatchSize = 500

// Cleanup deletes completed envelopes received before now minus retention and
// returns how many were removed. Pending, processing, and failed envelopes
// are never touched; failed envelopes are retained indefinitely for operator
// inspection.
func (p *Pipeline) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	removed := 0

	for {
		envs, err := p.store.ListByState(ctx, models.StateCompleted, cleanupBatchSize)
		if err != nil {
			return removed, fmt.Errorf("scan completed envelopes: %w", err)
		}

		deleted := 0
		for _, env := range envs {
			if !env.ReceivedAt.Before(cutoff) {
				// Results are ordered by received_at, everything after this
				// is younger than the cutoff.
				break
			}
			if err := p.store.Delete(ctx, env.ID); err != nil {
				slog.Warn("failed to delete completed envelope",
					logging.EventID(env.ID), logging.Error(err))
				continue
			}
			deleted++
		}
		removed += deleted
		metrics.EnvelopesCleaned.Add(float64(deleted))

		if deleted == 0 || len(envs) < cleanupBatchSize {
			break
		}
	}

	if removed > 0 {
		slog.Info("cleanup removed completed envelopes",
			slog.Int("removed", removed),
			slog.Time("cutoff", cutoff))
	}
	return removed, nil
}
