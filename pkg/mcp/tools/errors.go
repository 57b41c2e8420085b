package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/llm"
)

// ErrorResponse represents a structured error in tool results. Actionable
// failures are returned as tool results so the calling model sees them.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for failures the caller can act on (bad ids, unknown sessions,
// rejected questions). System failures are still returned as Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorCode classifies err into a tool error code. ok is false for
// failures that are not actionable by the caller.
func errorCode(err error) (code string, ok bool) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found", true
	case errors.Is(err, apperrors.ErrInvalidQuestion),
		errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrInvalidConnectionDescriptor):
		return "invalid_input", true
	case errors.Is(err, apperrors.ErrNoQueryInSession):
		return "no_query", true
	case errors.Is(err, apperrors.ErrNoRelevantTables):
		return "no_relevant_tables", true
	case errors.Is(err, apperrors.ErrExecutionFailed):
		return "execution_failed", true
	case errors.Is(err, apperrors.ErrConnectionFailed):
		return "connection_failed", true
	case errors.Is(err, apperrors.ErrInvalidAgentOutput):
		return "invalid_agent_output", true
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return "llm_" + string(llmErr.Type), true
	}
	return "", false
}

// resultForError turns an actionable err into an error result and passes
// anything else through as a protocol error.
func resultForError(err error) (*mcp.CallToolResult, error) {
	if code, ok := errorCode(err); ok {
		return NewErrorResult(code, err.Error()), nil
	}
	return nil, err
}
