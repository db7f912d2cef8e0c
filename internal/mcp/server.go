package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	assistant Assistant
}

// Config holds server dependencies.
type Config struct {
	Assistant Assistant
	// Document names the ingested document in tool descriptions.
	Document string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "docqa-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	doc := cfg.Document
	if doc == "" {
		doc = "the ingested document"
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question about " + doc + " using the passages most relevant to it. Replies that the information is missing when the document does not cover the question.",
	}, makeAskHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize_document",
		Description: "Return a concise summary of " + doc + " capturing all of its main points.",
	}, makeSummarizeHandler(cfg.Assistant))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the current status of the document index including page count, text length, stored chunk count and whether a summary is cached.",
	}, makeStatusHandler(cfg.Assistant))

	return &Server{
		server:    server,
		assistant: cfg.Assistant,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
