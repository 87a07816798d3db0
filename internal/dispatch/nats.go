// Package dispatch provides the production downstream handler: accepted
// envelopes are published to NATS, where the platform's CRM, task, calendar,
// and finance consumers pick them up. The pipeline treats this handler as an
// opaque collaborator.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

// Config holds NATS publisher configuration.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration

	// FlushTimeout bounds how long a publish waits for the server round trip.
	FlushTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "webhookd-dispatcher",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
		FlushTimeout:  5 * time.Second,
	}
}

// Publisher forwards envelopes to NATS subjects derived from the event
// category. Publishing the same envelope twice is safe: messages carry the
// envelope ID and consumers deduplicate on it.
type Publisher struct {
	conn *nats.Conn
	cfg  Config
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		cfg = DefaultConfig()
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &Publisher{conn: conn, cfg: cfg}, nil
}

// Handle publishes one envelope and waits for the server to confirm the
// flush. It satisfies pipeline.Handler.
func (p *Publisher) Handle(ctx context.Context, env *models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := p.conn.Publish(Subject(env.Category), data); err != nil {
		return fmt.Errorf("publish envelope: %w", err)
	}
	if err := p.conn.FlushTimeout(p.cfg.FlushTimeout); err != nil {
		return fmt.Errorf("flush publish: %w", err)
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
