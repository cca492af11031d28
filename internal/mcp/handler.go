package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler serves the MCP tools by calling the status API
type Handler struct {
	client *Client
}

// NewHandler creates a new MCP handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// ============ Inputs and Outputs ============

// MessageInput identifies one message
type MessageInput struct {
	ChatID    int64 `json:"chat_id" jsonschema:"numeric chat id, negative for groups and channels"`
	MessageID int64 `json:"message_id" jsonschema:"message id within the chat"`
}

// ChatInput identifies one chat
type ChatInput struct {
	ChatID int64 `json:"chat_id" jsonschema:"numeric chat id, negative for groups and channels"`
}

// NoInput is used by tools without arguments
type NoInput struct{}

// TitleOutput is the result of chatlog_chat_title
type TitleOutput struct {
	ChatID int64  `json:"chat_id"`
	Title  string `json:"title"`
}

// BufferStatsOutput is the result of chatlog_buffer_stats
type BufferStatsOutput struct {
	Buffers []BufferStat `json:"buffers"`
}

// FlushOutput is the result of chatlog_flush_buffers
type FlushOutput struct {
	Written []TableCount `json:"written"`
	Total   int          `json:"total"`
}

// WatermarkOutput is the result of chatlog_adminlog_watermark
type WatermarkOutput struct {
	ChatID    int64 `json:"chat_id"`
	Watermark int64 `json:"watermark"`
}

// ============ Lookup Handlers ============

func (h *Handler) resolveMessage(ctx context.Context, req *mcp.CallToolRequest, input MessageInput) (*mcp.CallToolResult, Message, error) {
	if input.ChatID == 0 || input.MessageID == 0 {
		return nil, Message{}, fmt.Errorf("chat_id and message_id are required")
	}
	msg, err := h.client.ResolveMessage(ctx, input.ChatID, input.MessageID)
	if err != nil {
		return nil, Message{}, err
	}
	return nil, *msg, nil
}

func (h *Handler) chatTitle(ctx context.Context, req *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, TitleOutput, error) {
	if input.ChatID == 0 {
		return nil, TitleOutput{}, fmt.Errorf("chat_id is required")
	}
	title, err := h.client.ChatTitle(ctx, input.ChatID)
	if err != nil {
		return nil, TitleOutput{}, err
	}
	return nil, TitleOutput{ChatID: input.ChatID, Title: title}, nil
}

// ============ Buffer Handlers ============

func (h *Handler) bufferStats(ctx context.Context, req *mcp.CallToolRequest, input NoInput) (*mcp.CallToolResult, BufferStatsOutput, error) {
	stats, err := h.client.BufferStats(ctx)
	if err != nil {
		return nil, BufferStatsOutput{}, err
	}
	if stats == nil {
		stats = []BufferStat{}
	}
	return nil, BufferStatsOutput{Buffers: stats}, nil
}

func (h *Handler) flushBuffers(ctx context.Context, req *mcp.CallToolRequest, input NoInput) (*mcp.CallToolResult, FlushOutput, error) {
	written, err := h.client.FlushBuffers(ctx)
	if err != nil {
		return nil, FlushOutput{}, err
	}
	out := FlushOutput{Written: written}
	if out.Written == nil {
		out.Written = []TableCount{}
	}
	for _, w := range written {
		out.Total += w.Rows
	}
	return nil, out, nil
}

// ============ Audit Log Handlers ============

func (h *Handler) adminLogWatermark(ctx context.Context, req *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, WatermarkOutput, error) {
	if input.ChatID == 0 {
		return nil, WatermarkOutput{}, fmt.Errorf("chat_id is required")
	}
	mark, err := h.client.AdminLogWatermark(ctx, input.ChatID)
	if err != nil {
		return nil, WatermarkOutput{}, err
	}
	return nil, WatermarkOutput{ChatID: input.ChatID, Watermark: mark}, nil
}
