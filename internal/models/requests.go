package models

import "time"

// CaptureResponse is returned by the webhook capture endpoint.
type CaptureResponse struct {
	EventID string `json:"event_id"`
}

// ErrorResponse is the generic error body for API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PipelineStatus is the payload of the status endpoint.
type PipelineStatus struct {
	PendingCount    int           `json:"pending_count"`
	ProcessingCount int           `json:"processing_count"`
	IsDraining      bool          `json:"is_draining"`
	Uptime          time.Duration `json:"uptime_ns"`
	UptimeHuman     string        `json:"uptime"`

	Captured  uint64 `json:"captured_total"`
	Completed uint64 `json:"completed_total"`
	Retried   uint64 `json:"retried_total"`
	Failed    uint64 `json:"failed_total"`
}

// CleanupResponse reports how many completed envelopes a cleanup pass removed.
type CleanupResponse struct {
	Removed        int `json:"removed"`
	RetentionHours int `json:"retention_hours"`
}

// FailedEnvelopesResponse lists permanently failed envelopes for operator inspection.
type FailedEnvelopesResponse struct {
	Envelopes []*Envelope `json:"envelopes"`
	Count     int         `json:"count"`
}
