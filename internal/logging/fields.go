package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldService  = "service"
	FieldSource   = "source"
	FieldCategory = "category"
	FieldEventID  = "event_id"
	FieldAttempt  = "attempt"
	FieldState    = "state"
	FieldError    = "error"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Source returns a slog attribute for the upstream source identifier.
func Source(source string) slog.Attr {
	return slog.String(FieldSource, source)
}

// Category returns a slog attribute for the event category.
func Category(category string) slog.Attr {
	return slog.String(FieldCategory, category)
}

// EventID returns a slog attribute for an envelope ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// Attempt returns a slog attribute for a processing attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// State returns a slog attribute for an envelope processing state.
func State(state string) slog.Attr {
	return slog.String(FieldState, state)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
