package dispatch

import "strings"

// Subject constants for the platform message bus.
// Follow the pattern: {domain}.{action}.{resource}
const (
	// SubjectEventsPrefix is the root for captured webhook events; the event
	// category is appended as the final token.
	SubjectEventsPrefix = "webhooks.event"

	// QueueEventConsumers is the queue group shared by downstream domain
	// consumers so each event is handled once per consumer pool.
	QueueEventConsumers = "event-consumers"
)

// Subject returns the publish subject for an event category.
// Example: webhooks.event.message
func Subject(category string) string {
	category = sanitizeToken(category)
	if category == "" {
		category = "unknown"
	}
	return SubjectEventsPrefix + "." + category
}

// sanitizeToken strips characters that carry meaning in NATS subjects.
func sanitizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ':
			return '_'
		}
		return r
	}, s)
}
