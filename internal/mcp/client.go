package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the HTTP client for the chatlog status API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new status API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Message is the resolved content of one message
type Message struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Found     bool   `json:"found"`
	Text      string `json:"text,omitempty"`
	Source    string `json:"source,omitempty"`
}

// BufferStat describes one write buffer
type BufferStat struct {
	Table     string `json:"table"`
	Pending   int    `json:"pending"`
	InFlight  int    `json:"in_flight"`
	Flushed   int64  `json:"flushed"`
	Dropped   int64  `json:"dropped"`
	LastFlush string `json:"last_flush"`
}

// TableCount is the number of rows written to one table
type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// ============ Lookups ============

// ResolveMessage gets the current content of a message
func (c *Client) ResolveMessage(ctx context.Context, chatID, messageID int64) (*Message, error) {
	var msg Message
	if err := c.get(ctx, fmt.Sprintf("/api/messages/%d/%d", chatID, messageID), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ChatTitle gets the latest known title of a chat
func (c *Client) ChatTitle(ctx context.Context, chatID int64) (string, error) {
	var result struct {
		Title string `json:"title"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/chats/%d/title", chatID), &result); err != nil {
		return "", err
	}
	return result.Title, nil
}

// ============ Buffers ============

// BufferStats gets the counters of every write buffer
func (c *Client) BufferStats(ctx context.Context) ([]BufferStat, error) {
	var result struct {
		Buffers []BufferStat `json:"buffers"`
	}
	if err := c.get(ctx, "/api/buffers", &result); err != nil {
		return nil, err
	}
	return result.Buffers, nil
}

// FlushBuffers forces a flush of every buffer
func (c *Client) FlushBuffers(ctx context.Context) ([]TableCount, error) {
	var result struct {
		Written []TableCount `json:"written"`
	}
	if err := c.post(ctx, "/api/buffers/flush", nil, &result); err != nil {
		return nil, err
	}
	return result.Written, nil
}

// ============ Audit Log ============

// AdminLogWatermark gets the highest stored audit-log event id of a chat
func (c *Client) AdminLogWatermark(ctx context.Context, chatID int64) (int64, error) {
	var result struct {
		Watermark int64 `json:"watermark"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/adminlog/%d/watermark", chatID), &result); err != nil {
		return 0, err
	}
	return result.Watermark, nil
}

// ============ HTTP Helpers ============

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, "GET", result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "POST", result)
}

func (c *Client) do(req *http.Request, method string, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(bytes.TrimSpace(body)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
