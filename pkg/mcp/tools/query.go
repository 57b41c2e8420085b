package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/services"
)

// QueryToolDeps contains the services behind the query tools.
type QueryToolDeps struct {
	Databases  services.DatabaseService
	Generation services.SQLGenerationService
	Execution  services.QueryExecutionService
	Logger     *zap.Logger
}

// databaseSummary is a registered database without its connection info.
type databaseSummary struct {
	ID          int64  `json:"id"`
	EngName     string `json:"eng_name"`
	KorName     string `json:"kor_name"`
	Description string `json:"description"`
	Engine      string `json:"engine"`
}

// RegisterQueryTools adds list_databases, generate_sql and execute_sql.
func RegisterQueryTools(s *server.MCPServer, deps *QueryToolDeps) {
	registerListDatabasesTool(s, deps)
	registerGenerateSQLTool(s, deps)
	registerExecuteSQLTool(s, deps)
}

func registerListDatabasesTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"list_databases",
		mcp.WithDescription("List registered databases. Use the id with generate_sql."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbs, err := deps.Databases.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list databases: %w", err)
		}

		out := make([]databaseSummary, len(dbs))
		for i, db := range dbs {
			out[i] = databaseSummary{
				ID:          db.ID,
				EngName:     db.EngName,
				KorName:     db.KorName,
				Description: db.Description,
				Engine:      db.Engine,
			}
		}
		return jsonResult(map[string]any{"databases": out})
	})
}

func registerGenerateSQLTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"generate_sql",
		mcp.WithDescription(
			"Generate a MySQL SELECT query for a natural-language question against a registered database. "+
				"Returns the query and a session id. Pass the id to execute_sql to run it.",
		),
		mcp.WithNumber(
			"database_id",
			mcp.Required(),
			mcp.Description("Database id from list_databases"),
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question, in any language"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		databaseID, err := requireID(req, "database_id")
		if err != nil {
			return NewErrorResult("invalid_input", err.Error()), nil
		}
		question, _ := arguments(req)["question"].(string)

		result, err := deps.Generation.Generate(ctx, databaseID, question)
		if err != nil && result == nil {
			return resultForError(err)
		}
		if !result.OK() {
			code := "generation_error"
			if c, ok := errorCode(err); ok {
				code = c
			}
			deps.Logger.Debug("Generation rejected",
				zap.Int64("database_id", databaseID),
				zap.String("message", result.Message))
			return NewErrorResultWithDetails(code, result.Message, result), nil
		}
		return jsonResult(result)
	})
}

func registerExecuteSQLTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"execute_sql",
		mcp.WithDescription(
			"Execute the query generated in a generate_sql session and return columns and rows. "+
				"Set summarize to also get a short Korean summary and a chart suggestion. "+
				"The generated statement runs as is against the target database.",
		),
		mcp.WithNumber(
			"database_id",
			mcp.Required(),
			mcp.Description("Database id the query was generated for"),
		),
		mcp.WithString(
			"session_id",
			mcp.Required(),
			mcp.Description("The id returned by generate_sql"),
		),
		mcp.WithBoolean(
			"summarize",
			mcp.Description("Summarize the result (default: false)"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		databaseID, err := requireID(req, "database_id")
		if err != nil {
			return NewErrorResult("invalid_input", err.Error()), nil
		}
		sessionID, err := requireString(req, "session_id")
		if err != nil {
			return NewErrorResult("invalid_input", err.Error()), nil
		}

		result, err := deps.Execution.Execute(ctx, databaseID, sessionID, optionalBool(req, "summarize", false))
		if err != nil {
			return resultForError(err)
		}
		return jsonResult(result)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
