package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/llm"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/prompts"
)

// TableSelector asks the model which cataloged tables a question needs.
type TableSelector interface {
	// Select returns the chosen table ids, restricted to the offered tables and
	// deduplicated. An empty result is not an error here.
	Select(ctx context.Context, question string, tables []models.TableSummary) ([]int64, error)
}

type tableSelector struct {
	client llm.LLMClient
	logger *zap.Logger
}

// NewTableSelector creates a selector backed by client, normally the
// table_selector RecordingClient.
func NewTableSelector(client llm.LLMClient, logger *zap.Logger) TableSelector {
	return &tableSelector{
		client: client,
		logger: logger.Named("table-selector"),
	}
}

// RelevantTables is nil when the key is absent, which is malformed output
// rather than an empty selection.
type selectionResponse struct {
	RelevantTables *[]int64 `json:"relevant_tables"`
}

func (s *tableSelector) Select(ctx context.Context, question string, tables []models.TableSummary) ([]int64, error) {
	options := make([]prompts.TableOption, len(tables))
	offered := make(map[int64]bool, len(tables))
	for i, t := range tables {
		options[i] = prompts.TableOption{ID: t.ID, Name: t.Name, Description: t.Description}
		offered[t.ID] = true
	}

	prompt := prompts.BuildTableSelectorPrompt(question, options)
	result, err := s.client.GenerateResponse(llm.WithQuestion(ctx, question), prompt, "", 0)
	if err != nil {
		return nil, fmt.Errorf("table selection: %w", err)
	}

	parsed, err := llm.ParseJSONResponse[selectionResponse](result.Content)
	if err != nil {
		s.logger.Warn("Unparseable table selection",
			zap.String("log_id", result.LogID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: table selector: %v", apperrors.ErrInvalidAgentOutput, err)
	}
	if parsed.RelevantTables == nil {
		s.logger.Warn("Table selection without relevant_tables",
			zap.String("log_id", result.LogID))
		return nil, fmt.Errorf("%w: table selector: relevant_tables missing", apperrors.ErrInvalidAgentOutput)
	}

	ids := *parsed.RelevantTables
	seen := make(map[int64]bool, len(ids))
	selected := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !offered[id] {
			s.logger.Debug("Dropping table id not offered to the model", zap.Int64("table_id", id))
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}

	s.logger.Info("Selected tables",
		zap.Int("offered", len(tables)),
		zap.Int64s("selected", selected))
	return selected, nil
}

var _ TableSelector = (*tableSelector)(nil)
