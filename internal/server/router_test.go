package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizlink-systems/bizlink-webhooks/internal/handlers"
	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
	"github.com/bizlink-systems/bizlink-webhooks/internal/pipeline"
	"github.com/bizlink-systems/bizlink-webhooks/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	p, err := pipeline.New(store.NewMemoryStore(),
		func(ctx context.Context, env *models.Envelope) error { return nil },
		pipeline.Config{MonitorInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	return NewRouter(handlers.NewWebhookHandler(p, nil, 72))
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"capture", http.MethodPost, "/api/v1/webhooks/whatsapp", `{"k":"v"}`, http.StatusAccepted},
		{"status", http.MethodGet, "/api/v1/status", "", http.StatusOK},
		{"cleanup", http.MethodPost, "/api/v1/cleanup", "", http.StatusOK},
		{"failed listing", http.MethodGet, "/api/v1/envelopes/failed", "", http.StatusOK},
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"ready", http.MethodGet, "/readyz", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_SetsRequestID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
