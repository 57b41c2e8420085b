package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/llm"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/prompts"
)

const (
	msgInvalidLLMResponse = "Invalid response format from LLM"
	msgQueryMissing       = "Query missing from LLM response"
)

// QueryGenerator turns a question and formatted metadata into a MySQL query.
type QueryGenerator interface {
	// Generate always returns a result once the model replied. Malformed
	// replies become ERROR results; only transport failures are returned as errors.
	Generate(ctx context.Context, question, metaInfo string) (*models.GenerationResult, error)
}

type queryGenerator struct {
	client   llm.LLMClient
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewQueryGenerator creates a generator. location anchors "today" in the prompt.
func NewQueryGenerator(client llm.LLMClient, location *time.Location, logger *zap.Logger) QueryGenerator {
	if location == nil {
		location = time.UTC
	}
	return &queryGenerator{
		client:   client,
		location: location,
		now:      time.Now,
		logger:   logger.Named("query-generator"),
	}
}

type generationResponse struct {
	Query   string `json:"query"`
	Result  string `json:"result"`
	Message string `json:"message"`
}

func (g *queryGenerator) Generate(ctx context.Context, question, metaInfo string) (*models.GenerationResult, error) {
	prompt := prompts.BuildQueryGeneratorPrompt(question, metaInfo, g.now().In(g.location))

	reply, err := g.client.GenerateResponse(llm.WithQuestion(ctx, question), prompt, "", 0)
	if err != nil {
		return nil, fmt.Errorf("query generation: %w", err)
	}

	result := ParseGenerationContent(reply.Content)
	result.SessionID = reply.LogID

	if result.Status == models.ResultSuccess {
		g.logger.Info("Generated query", zap.String("session_id", result.SessionID))
	} else {
		g.logger.Info("Generator returned an error result",
			zap.String("session_id", result.SessionID),
			zap.String("message", result.Message))
	}
	return result, nil
}

// ParseGenerationContent decodes a generator reply, fenced or not. It never
// fails: unusable content yields an ERROR result. The session id is left empty.
func ParseGenerationContent(content string) *models.GenerationResult {
	parsed, err := llm.ParseJSONResponse[generationResponse](content)
	if err != nil {
		return &models.GenerationResult{Status: models.ResultError, Message: msgInvalidLLMResponse}
	}

	switch strings.ToUpper(strings.TrimSpace(parsed.Result)) {
	case models.ResultSuccess:
		query := strings.TrimSpace(parsed.Query)
		if query == "" {
			return &models.GenerationResult{Status: models.ResultError, Message: msgQueryMissing}
		}
		return &models.GenerationResult{Status: models.ResultSuccess, Query: query}
	case models.ResultError:
		return &models.GenerationResult{Status: models.ResultError, Message: parsed.Message}
	default:
		return &models.GenerationResult{Status: models.ResultError, Message: msgInvalidLLMResponse}
	}
}

var _ QueryGenerator = (*queryGenerator)(nil)
