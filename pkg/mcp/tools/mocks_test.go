package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/services"
)

// mockDatabaseService only implements List; other methods panic through
// the nil embedded interface.
type mockDatabaseService struct {
	services.DatabaseService
	ListFunc func(ctx context.Context) ([]*models.Database, error)
}

func (m *mockDatabaseService) List(ctx context.Context) ([]*models.Database, error) {
	return m.ListFunc(ctx)
}

type mockGenerationService struct {
	GenerateFunc func(ctx context.Context, databaseID int64, question string) (*models.GenerationResult, error)
}

func (m *mockGenerationService) Generate(ctx context.Context, databaseID int64, question string) (*models.GenerationResult, error) {
	return m.GenerateFunc(ctx, databaseID, question)
}

type mockExecutionService struct {
	ExecuteFunc func(ctx context.Context, databaseID int64, sessionID string, summarize bool) (*models.ExecutionResult, error)
}

func (m *mockExecutionService) Execute(ctx context.Context, databaseID int64, sessionID string, summarize bool) (*models.ExecutionResult, error) {
	return m.ExecuteFunc(ctx, databaseID, sessionID, summarize)
}

func (m *mockExecutionService) History(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error) {
	panic("not used by tools")
}

// toolResponse is the decoded JSON-RPC response of a tools/call.
type toolResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// text returns the first content item's text.
func (r toolResponse) text(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.Result.Content)
	return r.Result.Content[0].Text
}

// callTool sends a tools/call request through the server.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(context.Background(), request))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func newTestServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}
