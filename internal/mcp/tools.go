package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names
const (
	ToolResolveMessage    = "chatlog_resolve_message"
	ToolChatTitle         = "chatlog_chat_title"
	ToolBufferStats       = "chatlog_buffer_stats"
	ToolFlushBuffers      = "chatlog_flush_buffers"
	ToolAdminLogWatermark = "chatlog_adminlog_watermark"
)

// NewServer creates an MCP server exposing the chatlog tools
func NewServer(h *Handler, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "chatlog",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolResolveMessage,
		Description: "Get the current text of a logged message, checking unflushed edits first. Use when a message was edited or deleted and you need what it said.",
	}, h.resolveMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolChatTitle,
		Description: "Get the latest known title of a chat from the message log.",
	}, h.chatTitle)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolBufferStats,
		Description: "Show pending, in-flight, flushed and dropped row counts of every write buffer.",
	}, h.bufferStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolFlushBuffers,
		Description: "Write all buffered rows to the store now instead of waiting for the next flush tick.",
	}, h.flushBuffers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAdminLogWatermark,
		Description: "Get the highest audit-log event id stored for a chat. The next sync fetches only newer events.",
	}, h.adminLogWatermark)

	return server
}

// ServeStdio runs the MCP server on stdin/stdout until ctx is done or the
// client disconnects.
func ServeStdio(ctx context.Context, apiURL, version string) error {
	server := NewServer(NewHandler(NewClient(apiURL)), version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
