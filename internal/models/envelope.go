package models

import "time"

// ProcessingState tracks where an envelope is in its lifecycle.
type ProcessingState string

const (
	StatePending    ProcessingState = "pending"
	StateProcessing ProcessingState = "processing"
	StateCompleted  ProcessingState = "completed"
	StateFailed     ProcessingState = "failed"
)

// Valid reports whether s is one of the known processing states.
func (s ProcessingState) Valid() bool {
	switch s {
	case StatePending, StateProcessing, StateCompleted, StateFailed:
		return true
	}
	return false
}

// Terminal reports whether an envelope in state s will never be processed again.
func (s ProcessingState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Envelope is the durable record for one captured webhook event. It is
// persisted before capture is acknowledged and owned by the pipeline for its
// entire lifetime.
type Envelope struct {
	ID           string          `json:"id"`
	ReceivedAt   time.Time       `json:"received_at"`
	Source       string          `json:"source_identifier"`
	Category     string          `json:"event_category"`
	Payload      []byte          `json:"payload"`
	State        ProcessingState `json:"processing_state"`
	AttemptCount int             `json:"attempt_count"`
	LastError    string          `json:"last_error,omitempty"`
}
