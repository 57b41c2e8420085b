package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Pinger reports catalog reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResult struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Catalog string `json:"catalog,omitempty"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// catalog may be nil, in which case only the version is reported.
func RegisterHealthTool(s *server.MCPServer, version string, catalog Pinger) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := healthResult{Status: "ok", Version: version}
		if catalog != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := catalog.Ping(pingCtx); err != nil {
				out.Status = "degraded"
				out.Catalog = "unreachable"
			} else {
				out.Catalog = "ok"
			}
		}

		result, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
