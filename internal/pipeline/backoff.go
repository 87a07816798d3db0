package pipeline

import "time"

// DefaultRetryDelays is the progressive backoff table applied between
// successive attempts for the same envelope.
var DefaultRetryDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
}

// Delay returns the backoff delay before re-queueing an envelope whose
// attempt-th attempt just failed. Attempts beyond the table clamp to the last
// entry.
func Delay(delays []time.Duration, attempt int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(delays) {
		attempt = len(delays)
	}
	return delays[attempt-1]
}
