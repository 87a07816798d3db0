package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

// PostgresStore implements Store on PostgreSQL. Persist is an upsert keyed by
// envelope ID, so every state change is a whole-record overwrite that is
// durable when the call returns.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Persist(ctx context.Context, env *models.Envelope) error {
	q := `INSERT INTO envelopes (
	        id, received_at, source_identifier, event_category, payload,
	        processing_state, attempt_count, last_error
	      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	      ON CONFLICT (id) DO UPDATE SET
	        processing_state = EXCLUDED.processing_state,
	        attempt_count    = EXCLUDED.attempt_count,
	        last_error       = EXCLUDED.last_error`

	var lastErr *string
	if env.LastError != "" {
		lastErr = &env.LastError
	}

	_, err := s.pool.Exec(ctx, q,
		env.ID, env.ReceivedAt, env.Source, env.Category, env.Payload,
		string(env.State), env.AttemptCount, lastErr,
	)
	if err != nil {
		return fmt.Errorf("persist envelope: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Envelope, error) {
	q := `SELECT id, received_at, source_identifier, event_category, payload,
	             processing_state, attempt_count, last_error
	      FROM envelopes WHERE id = $1`

	env, err := scanEnvelope(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get envelope: %w", err)
	}
	return env, nil
}

func (s *PostgresStore) LoadUnfinished(ctx context.Context) ([]*models.Envelope, error) {
	q := `SELECT id, received_at, source_identifier, event_category, payload,
	             processing_state, attempt_count, last_error
	      FROM envelopes
	      WHERE processing_state IN ($1, $2)
	      ORDER BY received_at ASC`

	rows, err := s.pool.Query(ctx, q, string(models.StatePending), string(models.StateProcessing))
	if err != nil {
		return nil, fmt.Errorf("load unfinished: %w", err)
	}
	defer rows.Close()

	return collectEnvelopes(rows), rows.Err()
}

func (s *PostgresStore) ListByState(ctx context.Context, state models.ProcessingState, limit int) ([]*models.Envelope, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT id, received_at, source_identifier, event_category, payload,
	             processing_state, attempt_count, last_error
	      FROM envelopes
	      WHERE processing_state = $1
	      ORDER BY received_at ASC
	      LIMIT $2`

	rows, err := s.pool.Query(ctx, q, string(state), limit)
	if err != nil {
		return nil, fmt.Errorf("list by state: %w", err)
	}
	defer rows.Close()

	return collectEnvelopes(rows), rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM envelopes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnvelope(row rowScanner) (*models.Envelope, error) {
	var (
		env        models.Envelope
		receivedAt time.Time
		state      string
		lastErr    *string
	)
	if err := row.Scan(
		&env.ID, &receivedAt, &env.Source, &env.Category, &env.Payload,
		&state, &env.AttemptCount, &lastErr,
	); err != nil {
		return nil, err
	}
	env.ReceivedAt = receivedAt
	env.State = models.ProcessingState(state)
	if lastErr != nil {
		env.LastError = *lastErr
	}
	return &env, nil
}

// collectEnvelopes scans all rows, skipping any record that cannot be read or
// carries an unknown state. A corrupt row must not block recovery of the rest.
func collectEnvelopes(rows pgx.Rows) []*models.Envelope {
	var out []*models.Envelope
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			slog.Warn("skipping unreadable envelope record", slog.String("error", err.Error()))
			continue
		}
		if !env.State.Valid() {
			slog.Warn("skipping envelope with unknown state",
				slog.String("event_id", env.ID), slog.String("state", string(env.State)))
			continue
		}
		out = append(out, env)
	}
	return out
}
