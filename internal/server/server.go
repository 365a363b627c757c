// Package server provides the MCP server wrapper with lifecycle management.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/journeys/internal/tools"
)

// Name is the implementation name reported to MCP clients.
const Name = "journeys"

// Server wraps the MCP server with dependencies and lifecycle management.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates a new MCP server with the given version and logger.
func New(version string, logger *slog.Logger) *Server {
	impl := &mcp.Implementation{
		Name:    Name,
		Version: version,
	}

	mcpServer := mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: "Help a learner describe what they want to learn with chat_start and chat_respond, " +
			"then follow the journey with get_journey and record progress with the progress_* tools.",
	})

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// Run starts the server on stdio transport and blocks until disconnect or context cancellation.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Setup adds logging middleware and registers every tool backed by deps.
func (s *Server) Setup(deps *tools.Dependencies) {
	s.mcp.AddReceivingMiddleware(LoggingMiddleware(s.logger))
	if deps != nil {
		tools.RegisterAll(s.mcp, deps)
	}
}
