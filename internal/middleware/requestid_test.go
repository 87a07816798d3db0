package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name           string
		existingHeader string
		expectSame     bool
	}{
		{
			name:           "generates new request ID when not present",
			existingHeader: "",
			expectSame:     false,
		},
		{
			name:           "propagates existing request ID",
			existingHeader: "test-request-id-123",
			expectSame:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID = GetRequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.existingHeader != "" {
				req.Header.Set("X-Request-ID", tt.existingHeader)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if capturedID == "" {
				t.Fatal("Expected request ID in context, got empty string")
			}

			if tt.expectSame && capturedID != tt.existingHeader {
				t.Errorf("Expected request ID %s, got %s", tt.existingHeader, capturedID)
			}

			if got := rec.Header().Get("X-Request-ID"); got != capturedID {
				t.Errorf("Expected response header %s, got %s", capturedID, got)
			}
		})
	}
}

func TestGetRequestID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("Expected empty request ID, got %s", got)
	}
}
