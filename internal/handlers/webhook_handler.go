package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bizlink-systems/bizlink-webhooks/internal/logging"
	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
	"github.com/bizlink-systems/bizlink-webhooks/internal/pipeline"
	"github.com/bizlink-systems/bizlink-webhooks/internal/ratelimit"
)

// WebhookPathPrefix is the capture endpoint; the source identifier is the
// final path segment.
const WebhookPathPrefix = "/api/v1/webhooks/"

// maxPayloadBytes bounds a single webhook body.
const maxPayloadBytes = 1 << 20

type WebhookHandler struct {
	pipeline       *pipeline.Pipeline
	limiter        ratelimit.RateLimiter
	retentionHours int
}

func NewWebhookHandler(p *pipeline.Pipeline, limiter ratelimit.RateLimiter, retentionHours int) *WebhookHandler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	if retentionHours <= 0 {
		retentionHours = 72
	}
	return &WebhookHandler{
		pipeline:       p,
		limiter:        limiter,
		retentionHours: retentionHours,
	}
}

// HandleCapture accepts an inbound provider event, persists it, and returns
// the envelope ID. Processing is asynchronous; a 202 means the event is
// durably recorded, not yet processed.
func (h *WebhookHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	source := strings.Trim(strings.TrimPrefix(r.URL.Path, WebhookPathPrefix), "/")
	if source == "" || strings.Contains(source, "/") {
		h.sendError(w, http.StatusNotFound, "unknown webhook source")
		return
	}

	allowed, err := h.limiter.Allow(r.Context(), source)
	if err != nil {
		// Rate limiter outage must not drop provider traffic.
		slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
			logging.Source(source), logging.Error(err))
	} else if !allowed {
		h.sendError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		category = r.Header.Get("X-Event-Category")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if len(body) == 0 {
		h.sendError(w, http.StatusBadRequest, "empty payload")
		return
	}
	if len(body) > maxPayloadBytes {
		h.sendError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	id, err := h.pipeline.Capture(r.Context(), source, category, body)
	if err != nil {
		// Fail closed: the provider sees the rejection and retries on its side.
		slog.ErrorContext(r.Context(), "capture rejected",
			logging.Source(source), logging.Error(err))
		h.sendError(w, http.StatusServiceUnavailable, "event could not be recorded")
		return
	}

	h.sendJSON(w, http.StatusAccepted, models.CaptureResponse{EventID: id})
}

// HandleStatus serves the operational health-check payload.
func (h *WebhookHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.sendJSON(w, http.StatusOK, h.pipeline.Status())
}

// HandleCleanup runs a retention pass over completed envelopes.
func (h *WebhookHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	hours := h.retentionHours
	if v := r.URL.Query().Get("retention_hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.sendError(w, http.StatusBadRequest, "invalid retention_hours")
			return
		}
		hours = parsed
	}

	removed, err := h.pipeline.Cleanup(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		slog.ErrorContext(r.Context(), "cleanup failed", logging.Error(err))
		h.sendError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.sendJSON(w, http.StatusOK, models.CleanupResponse{
		Removed:        removed,
		RetentionHours: hours,
	})
}

// HandleFailed lists permanently failed envelopes for operator inspection.
func (h *WebhookHandler) HandleFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.sendError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	envs, err := h.pipeline.ListFailed(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed envelope listing failed", logging.Error(err))
		h.sendError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	h.sendJSON(w, http.StatusOK, models.FailedEnvelopesResponse{
		Envelopes: envs,
		Count:     len(envs),
	})
}

func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *WebhookHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"stats":  h.pipeline.Status(),
	})
}

func (h *WebhookHandler) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		slog.Error("failed to encode response", logging.Error(err))
	}
}

func (h *WebhookHandler) sendError(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, models.ErrorResponse{Error: msg})
}
