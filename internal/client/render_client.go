package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipforge/api/internal/config"
)

// VideoRenderer defines the interface for the external render API.
// Rendering is task-based: submit, then poll until the task settles.
type VideoRenderer interface {
	StartRender(ctx context.Context, req *StartRenderRequest) (*StartRenderResponse, error)
	GetRenderStatus(ctx context.Context, taskID string) (*RenderResult, error)
	PollRenderStatus(ctx context.Context, taskID string, interval, timeout time.Duration) (*RenderResult, error)
}

// RenderClient implements VideoRenderer for the hosted render API
type RenderClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// RenderTrack is one timeline entry: a clip with its caption overlay
type RenderTrack struct {
	ClipURL  string  `json:"clip_url"`
	Caption  string  `json:"caption,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// StartRenderRequest represents the request for a render task
type StartRenderRequest struct {
	Tracks       []RenderTrack `json:"tracks"`
	VoiceoverURL string        `json:"voiceover_url,omitempty"`
	Width        int           `json:"width,omitempty"`
	Height       int           `json:"height,omitempty"`
}

// StartRenderResponse represents the accepted render task
type StartRenderResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// RenderResult represents a render task's state and, once done, output
type RenderResult struct {
	TaskID   string  `json:"task_id"`
	Status   string  `json:"status"`
	VideoURL string  `json:"video_url,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// NewRenderClient creates a new render API client
func NewRenderClient(cfg *config.RenderConfig) *RenderClient {
	return &RenderClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// StartRender submits a render task
func (c *RenderClient) StartRender(ctx context.Context, req *StartRenderRequest) (*StartRenderResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/renders", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("render API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var startResp StartRenderResponse
	if err := json.Unmarshal(respBody, &startResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &startResp, nil
}

// GetRenderStatus fetches the current state of a render task
func (c *RenderClient) GetRenderStatus(ctx context.Context, taskID string) (*RenderResult, error) {
	url := fmt.Sprintf("%s/v1/renders/%s", c.baseURL, taskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result RenderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// PollRenderStatus polls a render task until it completes, fails, or
// the timeout elapses.
func (c *RenderClient) PollRenderStatus(ctx context.Context, taskID string, interval, timeout time.Duration) (*RenderResult, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := c.GetRenderStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case "completed":
			return result, nil
		case "failed":
			return nil, fmt.Errorf("render task failed: %s", result.Error)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("render task %s timed out after %s", taskID, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsConfigured returns true if the client has valid configuration
func (c *RenderClient) IsConfigured() bool {
	return c.apiKey != ""
}
