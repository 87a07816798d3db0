// Package client is a thin HTTP client for the webhookd operational API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bizlink-systems/bizlink-webhooks/internal/models"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Status() (*models.PipelineStatus, error) {
	var status models.PipelineStatus
	if err := c.getJSON("/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Cleanup(retentionHours int) (*models.CleanupResponse, error) {
	path := "/api/v1/cleanup"
	if retentionHours >= 0 {
		path += "?retention_hours=" + strconv.Itoa(retentionHours)
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("cleanup request failed: %w", err)
	}
	defer resp.Body.Close()

	var out models.CleanupResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFailed(limit int) (*models.FailedEnvelopesResponse, error) {
	path := "/api/v1/envelopes/failed"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out models.FailedEnvelopesResponse
	if err := c.getJSON(path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Capture(source, category string, payload []byte) (*models.CaptureResponse, error) {
	u := c.baseURL + "/api/v1/webhooks/" + url.PathEscape(source)
	if category != "" {
		u += "?category=" + url.QueryEscape(category)
	}

	resp, err := c.client.Post(u, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("capture request failed: %w", err)
	}
	defer resp.Body.Close()

	var out models.CaptureResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(path string, v any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, v)
}

func decodeResponse(resp *http.Response, v any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr models.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("service returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("service returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
