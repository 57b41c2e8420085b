// Package llm provides the model clients used by the query pipeline agents.
package llm

import (
	"context"

	"github.com/ydh4481/llm-ddp/pkg/models"
)

// GenerateResponseResult is one completed model call.
type GenerateResponseResult struct {
	// ID is the provider-issued response id, empty when the provider sends none.
	ID               string
	Model            string
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// LogID is the interaction log id, set by RecordingClient.
	LogID string
}

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends a system message and a user prompt and returns the reply.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// InteractionLogWriter persists completed model calls. The repositories
// package implements it.
type InteractionLogWriter interface {
	Create(ctx context.Context, entry *models.LLMLog) error
}

var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*RecordingClient)(nil)
)
