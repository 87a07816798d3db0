// Package pipeline implements the durable webhook ingestion pipeline: capture
// persists an envelope before acknowledging it, a single-flight drain worker
// hands envelopes to the downstream handler, failed attempts are re-queued
// with progressive backoff, and terminal envelopes stay in the store until
// cleanup removes them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bizlink-systems/bizlink-webhooks/internal/logging"
	"github.com/bizlink-systems/bizlink-webhooks/internal/metrics"
	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
	"github.com/bizlink-systems/bizlink-webhooks/internal/store"
)

// Handler is the single downstream consumer invoked for every dequeued
// envelope. It must tolerate repeated invocation for the same envelope ID:
// crash recovery can redeliver an envelope whose side effects already ran.
type Handler func(ctx context.Context, env *models.Envelope) error

// Config configures the pipeline.
type Config struct {
	// MaxRetries bounds automatic retries per envelope. After a failure on
	// attempt MaxRetries+1 the envelope is parked in the failed state.
	MaxRetries int

	// RetryDelays is the progressive backoff table; attempts beyond its
	// length clamp to the last entry.
	RetryDelays []time.Duration

	// MonitorInterval is how often the health monitor checks for a stalled
	// queue.
	MonitorInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if len(c.RetryDelays) == 0 {
		c.RetryDelays = DefaultRetryDelays
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = 30 * time.Second
	}
}

// Pipeline owns every envelope from capture to its terminal state. One
// Pipeline is constructed at startup and injected wherever capture or
// maintenance operations are needed; there is no global state.
type Pipeline struct {
	store   store.Store
	handler Handler
	cfg     Config

	startedAt time.Time

	mu       sync.Mutex
	queue    []*models.Envelope
	draining bool
	inFlight int
	stopped  bool
	timers   map[string]*time.Timer

	stopCh chan struct{}
	wg     sync.WaitGroup

	captured  atomic.Uint64
	completed atomic.Uint64
	retried   atomic.Uint64
	failed    atomic.Uint64
}

// New creates a pipeline. The handler is fixed at construction; there is no
// listener registration after the fact.
func New(st store.Store, handler Handler, cfg Config) (*Pipeline, error) {
	if st == nil {
		return nil, errors.New("pipeline requires a store")
	}
	if handler == nil {
		return nil, errors.New("pipeline requires a downstream handler")
	}
	cfg.applyDefaults()

	return &Pipeline{
		store:     st,
		handler:   handler,
		cfg:       cfg,
		startedAt: time.Now(),
		timers:    make(map[string]*time.Timer),
		stopCh:    make(chan struct{}),
	}, nil
}

// Capture persists a new envelope and queues it for asynchronous processing.
// The returned ID is only handed out once the write is durable; a persist
// failure is surfaced to the caller and the event is not accepted.
func (p *Pipeline) Capture(ctx context.Context, source, category string, payload []byte) (string, error) {
	if source == "" {
		return "", errors.New("source identifier is required")
	}
	if category == "" {
		category = "unknown"
	}

	env := &models.Envelope{
		ID:         uuid.New().String(),
		ReceivedAt: time.Now().UTC(),
		Source:     source,
		Category:   category,
		Payload:    payload,
		State:      models.StatePending,
	}

	if err := p.store.Persist(ctx, env); err != nil {
		metrics.EventsCaptured.WithLabelValues(source, "rejected").Inc()
		return "", fmt.Errorf("capture event: %w", err)
	}

	p.captured.Add(1)
	metrics.EventsCaptured.WithLabelValues(source, "accepted").Inc()
	metrics.EventBytesTotal.Add(float64(len(payload)))

	p.enqueue(env)
	p.maybeDrain()

	return env.ID, nil
}

func (p *Pipeline) enqueue(env *models.Envelope) {
	p.mu.Lock()
	p.queue = append(p.queue, env)
	metrics.QueueDepth.Set(float64(len(p.queue)))
	p.mu.Unlock()
}

// maybeDrain starts a drain pass unless one is already running. At most one
// drain pass is active per process.
func (p *Pipeline) maybeDrain() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.draining || p.stopped || len(p.queue) == 0 {
		return false
	}
	p.draining = true
	p.wg.Add(1)
	go p.drain()
	return true
}

// drain consumes queued envelopes until the queue is empty, then exits.
func (p *Pipeline) drain() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		if p.stopped || len(p.queue) == 0 {
			p.draining = false
			p.mu.Unlock()
			return
		}
		env := p.queue[0]
		p.queue = p.queue[1:]
		p.inFlight++
		metrics.QueueDepth.Set(float64(len(p.queue)))
		metrics.EnvelopesInFlight.Set(float64(p.inFlight))
		p.mu.Unlock()

		p.process(env)

		p.mu.Lock()
		p.inFlight--
		metrics.EnvelopesInFlight.Set(float64(p.inFlight))
		p.mu.Unlock()
	}
}

// process runs one attempt for one envelope. Every state change is persisted
// before the drain loop moves on to the next envelope.
func (p *Pipeline) process(env *models.Envelope) {
	ctx := context.Background()

	env.AttemptCount++
	env.State = models.StateProcessing
	if err := p.store.Persist(ctx, env); err != nil {
		// The attempt was never durably recorded, so it does not count
		// against the retry budget. Re-queue after the base delay.
		slog.Error("failed to persist processing transition",
			logging.EventID(env.ID), logging.Error(err))
		env.AttemptCount--
		env.State = models.StatePending
		p.scheduleRetry(env, Delay(p.cfg.RetryDelays, 1))
		return
	}

	start := time.Now()
	err := p.handler(ctx, env)
	metrics.HandlerDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		env.State = models.StateCompleted
		env.LastError = ""
		if perr := p.store.Persist(ctx, env); perr != nil {
			// The handler ran; a restart will redeliver, which the handler
			// must tolerate.
			slog.Error("failed to persist completed transition",
				logging.EventID(env.ID), logging.Error(perr))
		}
		p.completed.Add(1)
		metrics.EventsCompleted.Inc()
		slog.Debug("envelope completed",
			logging.EventID(env.ID), logging.Attempt(env.AttemptCount))
		return
	}

	env.LastError = err.Error()

	if env.AttemptCount <= p.cfg.MaxRetries {
		env.State = models.StatePending
		if perr := p.store.Persist(ctx, env); perr != nil {
			slog.Error("failed to persist retry transition",
				logging.EventID(env.ID), logging.Error(perr))
		}
		delay := Delay(p.cfg.RetryDelays, env.AttemptCount)
		p.retried.Add(1)
		metrics.EventsRetried.Inc()
		slog.Warn("handler failed, scheduling retry",
			logging.EventID(env.ID),
			logging.Attempt(env.AttemptCount),
			slog.Duration("delay", delay),
			logging.Error(err))
		p.scheduleRetry(env, delay)
		return
	}

	env.State = models.StateFailed
	if perr := p.store.Persist(ctx, env); perr != nil {
		slog.Error("failed to persist failed transition",
			logging.EventID(env.ID), logging.Error(perr))
	}
	p.failed.Add(1)
	metrics.EventsFailed.Inc()
	slog.Error("envelope failed permanently, retries exhausted",
		logging.EventID(env.ID),
		logging.Attempt(env.AttemptCount),
		logging.Error(err))
}

// scheduleRetry arranges for the envelope to be re-queued after the delay
// elapses without blocking the drain loop or new captures. Timers are held
// in memory only; after a crash the envelope is still recovered from the
// store, restarting its backoff progression.
func (p *Pipeline) scheduleRetry(env *models.Envelope, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	id := env.ID
	p.timers[id] = time.AfterFunc(delay, func() {
		p.mu.Lock()
		delete(p.timers, id)
		if p.stopped {
			p.mu.Unlock()
			return
		}
		p.queue = append(p.queue, env)
		metrics.QueueDepth.Set(float64(len(p.queue)))
		p.mu.Unlock()

		p.maybeDrain()
	})
}

// Status returns a snapshot for the operational health-check endpoint.
func (p *Pipeline) Status() models.PipelineStatus {
	p.mu.Lock()
	pending := len(p.queue)
	processing := p.inFlight
	draining := p.draining
	p.mu.Unlock()

	uptime := time.Since(p.startedAt)
	return models.PipelineStatus{
		PendingCount:    pending,
		ProcessingCount: processing,
		IsDraining:      draining,
		Uptime:          uptime,
		UptimeHuman:     uptime.Round(time.Second).String(),
		Captured:        p.captured.Load(),
		Completed:       p.completed.Load(),
		Retried:         p.retried.Load(),
		Failed:          p.failed.Load(),
	}
}

// ListFailed returns permanently failed envelopes for operator inspection.
func (p *Pipeline) ListFailed(ctx context.Context, limit int) ([]*models.Envelope, error) {
	return p.store.ListByState(ctx, models.StateFailed, limit)
}

// Stop cancels pending retry timers and waits for the active drain pass to
// finish. Envelopes left pending remain in the store and are recovered on the
// next start.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
}
