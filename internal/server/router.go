package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bizlink-systems/bizlink-webhooks/internal/handlers"
	"github.com/bizlink-systems/bizlink-webhooks/internal/middleware"
)

// NewRouter constructs a ServeMux with the webhook API routes registered.
func NewRouter(h *handlers.WebhookHandler) http.Handler {
	mux := http.NewServeMux()

	// Capture entry point; trailing segment is the source identifier
	mux.HandleFunc(handlers.WebhookPathPrefix, h.HandleCapture)

	// Operational endpoints
	mux.HandleFunc("/api/v1/status", h.HandleStatus)
	mux.HandleFunc("/api/v1/cleanup", h.HandleCleanup)
	mux.HandleFunc("/api/v1/envelopes/failed", h.HandleFailed)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
