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

// TelegramClient sends messages through the Telegram Bot API. It backs
// the pipeline's terminal notifications.
type TelegramClient struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramClient creates a new Bot API client
func NewTelegramClient(cfg *config.TelegramConfig) *TelegramClient {
	return &TelegramClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:  cfg.BaseURL,
		botToken: cfg.BotToken,
	}
}

// SendMessage posts a text message to a chat. Callers treat delivery as
// best-effort; an error here never fails a production run.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	if !c.IsConfigured() {
		return fmt.Errorf("telegram bot token not configured")
	}

	reqBody := sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
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

	var sendResp sendMessageResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !sendResp.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, sendResp.Description)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *TelegramClient) IsConfigured() bool {
	return c.botToken != ""
}
