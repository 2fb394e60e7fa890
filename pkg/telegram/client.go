// Package telegram provides the outbound chat notification client.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.telegram.org"
	defaultHTTPTimeout = 10 * time.Second

	// maxErrorBodyBytes caps how much of an error response is read back
	// for the error message.
	maxErrorBodyBytes = 4 * 1024
)

// Config holds Telegram client configuration.
type Config struct {
	// BotToken is the bot credential token (required).
	BotToken string

	// ChatID is the destination channel identifier (required).
	ChatID string

	// BaseURL overrides the Telegram API base URL. Intended for tests.
	// Default: https://api.telegram.org.
	BaseURL string

	// HTTPClient is an optional HTTP client for API calls.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client
}

// ConfigFromEnv builds a Config from the TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHANNEL_ID environment variables. Both are required.
func ConfigFromEnv() (Config, error) {
	token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if token == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	chatID := strings.TrimSpace(os.Getenv("TELEGRAM_CHANNEL_ID"))
	if chatID == "" {
		return Config{}, fmt.Errorf("TELEGRAM_CHANNEL_ID is required")
	}
	return Config{BotToken: token, ChatID: chatID}, nil
}

// Client sends messages to a single Telegram chat.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	chatID     string
}

// New creates a new Telegram client.
func New(config Config) (*Client, error) {
	if strings.TrimSpace(config.BotToken) == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if strings.TrimSpace(config.ChatID) == "" {
		return nil, fmt.Errorf("chat id is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(config.BotToken),
		chatID:     strings.TrimSpace(config.ChatID),
	}, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage posts text to the configured chat. The call is synchronous and
// single-attempt; a non-2xx response is returned as an error and never
// retried here.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: c.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
