package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/middleware"
)

// Server wraps the mcp-go MCPServer that exposes the query pipeline as tools.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

const instructions = `Answer questions about cataloged MySQL databases.
Call list_databases to find a database_id, then generate_sql with the question.
Pass the returned id as session_id to execute_sql to run the query.`

// NewServer creates the MCP server. Tool handler panics are recovered and
// reported as tool errors.
func NewServer(name, version string, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	return &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

// Handler returns the stateless streamable HTTP transport, with JSON-RPC
// call logging. The caller mounts it at /mcp.
func (s *Server) Handler() http.Handler {
	transport := server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
	return middleware.MCPRequestLogger(s.logger)(transport)
}
