package dispatch

import "testing"

func TestSubject(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     string
	}{
		{"plain category", "message", "webhooks.event.message"},
		{"uppercase normalized", "Contact", "webhooks.event.contact"},
		{"empty defaults to unknown", "", "webhooks.event.unknown"},
		{"whitespace only defaults to unknown", "   ", "webhooks.event.unknown"},
		{"dots replaced", "order.created", "webhooks.event.order_created"},
		{"wildcards replaced", "a*b>c", "webhooks.event.a_b_c"},
		{"inner spaces replaced", "status update", "webhooks.event.status_update"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subject(tt.category); got != tt.want {
				t.Errorf("Subject(%q) = %q, want %q", tt.category, got, tt.want)
			}
		})
	}
}
