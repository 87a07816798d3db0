package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

func TestClient_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/status", r.URL.Path)
		json.NewEncoder(w).Encode(models.PipelineStatus{
			PendingCount: 2,
			Captured:     10,
			Completed:    7,
			Failed:       1,
			UptimeHuman:  "3h0m0s",
		})
	}))
	defer srv.Close()

	status, err := New(srv.URL).Status()
	require.NoError(t, err)
	assert.Equal(t, 2, status.PendingCount)
	assert.Equal(t, uint64(10), status.Captured)
	assert.Equal(t, "3h0m0s", status.UptimeHuman)
}

func TestClient_Cleanup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/cleanup", r.URL.Path)
		require.Equal(t, "24", r.URL.Query().Get("retention_hours"))
		json.NewEncoder(w).Encode(models.CleanupResponse{Removed: 5, RetentionHours: 24})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Cleanup(24)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Removed)
	assert.Equal(t, 24, resp.RetentionHours)
}

func TestClient_ListFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/envelopes/failed", r.URL.Path)
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(models.FailedEnvelopesResponse{
			Envelopes: []*models.Envelope{{ID: "abc", Source: "whatsapp", LastError: "boom"}},
			Count:     1,
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).ListFailed(10)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "abc", resp.Envelopes[0].ID)
}

func TestClient_Capture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/webhooks/whatsapp", r.URL.Path)
		require.Equal(t, "message", r.URL.Query().Get("category"))
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(models.CaptureResponse{EventID: "evt-1"})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Capture("whatsapp", "message", []byte(`{"k":"v"}`))
	require.NoError(t, err)
	assert.Equal(t, "evt-1", resp.EventID)
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "event could not be recorded"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Capture("whatsapp", "", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "503"))
	assert.True(t, strings.Contains(err.Error(), "event could not be recorded"))
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Status()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "504"))
}
