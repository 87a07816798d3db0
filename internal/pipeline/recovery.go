package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bizlink-systems/bizlink-webhooks/internal/logging"
	"github.com/bizlink-systems/bizlink-webhooks/internal/metrics"
	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

// Recover rebuilds the in-memory queue from unfinished envelopes in the store
// and triggers a drain pass. It runs once at process start, before normal
// traffic resumes.
//
// An envelope found in the processing state means the previous process
// crashed mid-handling. Handler side effects are not guaranteed atomic, so
// the envelope is reset to pending and redelivered rather than trusted as
// complete.
func (p *Pipeline) Recover(ctx context.Context) (int, error) {
	envs, err := p.store.LoadUnfinished(ctx)
	if err != nil {
		return 0, fmt.Errorf("load unfinished envelopes: %w", err)
	}

	recovered := 0
	for _, env := range envs {
		if env.State == models.StateProcessing {
			env.State = models.StatePending
			if err := p.store.Persist(ctx, env); err != nil {
				slog.Warn("failed to reset interrupted envelope, skipping",
					logging.EventID(env.ID), logging.Error(err))
				continue
			}
			slog.Info("reset envelope interrupted mid-processing",
				logging.EventID(env.ID), logging.Attempt(env.AttemptCount))
		}
		p.enqueue(env)
		metrics.EnvelopesRecovered.Inc()
		recovered++
	}

	if recovered > 0 {
		slog.Info("recovery complete, resuming drain", slog.Int("recovered", recovered))
	}
	p.maybeDrain()

	return recovered, nil
}
