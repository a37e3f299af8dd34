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

// MediaProcessor defines the interface for the media microservice:
// voiceover synthesis and stock-footage resolution.
type MediaProcessor interface {
	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)
	ResolveFootage(ctx context.Context, req *FootageRequest) (*FootageResponse, error)
	HealthCheck(ctx context.Context) error
}

// MediaClient implements MediaProcessor for the Python microservice
type MediaClient struct {
	httpClient *http.Client
	baseURL    string
}

// SynthesizeRequest represents the request for voiceover synthesis
type SynthesizeRequest struct {
	Lines     []string `json:"lines"`
	Voice     string   `json:"voice,omitempty"`
	OutputKey string   `json:"output_key"`
}

// SynthesizeResponse represents the response from voiceover synthesis
type SynthesizeResponse struct {
	OutputURL string  `json:"output_url"`
	Duration  float64 `json:"duration"`
}

// FootageRequest represents the request for stock-footage resolution
type FootageRequest struct {
	Queries     []string `json:"queries"`
	MaxDuration float64  `json:"max_duration,omitempty"`
	Orientation string   `json:"orientation,omitempty"`
}

// FootageClip is one resolved stock clip
type FootageClip struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
	Query    string  `json:"query"`
}

// FootageResponse represents the response from footage resolution
type FootageResponse struct {
	Clips []FootageClip `json:"clips"`
}

// NewMediaClient creates a new media service client
func NewMediaClient(cfg *config.MediaConfig) *MediaClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &MediaClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.ServiceURL,
	}
}

// Synthesize generates a voiceover track for the given caption lines
func (c *MediaClient) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	var resp SynthesizeResponse
	if err := c.post(ctx, "/synthesize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveFootage finds one stock clip per visual query
func (c *MediaClient) ResolveFootage(ctx context.Context, req *FootageRequest) (*FootageResponse, error) {
	var resp FootageResponse
	if err := c.post(ctx, "/footage", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthCheck verifies the media service is reachable
func (c *MediaClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media service unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}

func (c *MediaClient) post(ctx context.Context, path string, in, out interface{}) error {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *MediaClient) IsConfigured() bool {
	return c.baseURL != ""
}
