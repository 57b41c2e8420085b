package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/llm"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/prompts"
)

// MaxSummaryRows caps the rows embedded in the summarizer prompt.
const MaxSummaryRows = 100

var (
	timeSeriesMarkers       = []string{"date", "time", "_at", "day", "month", "year"}
	koreanTimeSeriesMarkers = []string{"일자", "일시", "날짜", "월"}
)

// IsTimeSeries reports whether any column name looks temporal.
func IsTimeSeries(columns []string) bool {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, m := range timeSeriesMarkers {
			if strings.Contains(lower, m) {
				return true
			}
		}
		for _, m := range koreanTimeSeriesMarkers {
			if strings.Contains(col, m) {
				return true
			}
		}
	}
	return false
}

// ResultSummarizer describes query results in Korean and recommends a chart.
type ResultSummarizer interface {
	Summarize(ctx context.Context, question string, columns []string, rows [][]any) (*models.Summary, error)
}

type resultSummarizer struct {
	client llm.LLMClient
	logger *zap.Logger
}

// NewResultSummarizer creates a summarizer backed by client.
func NewResultSummarizer(client llm.LLMClient, logger *zap.Logger) ResultSummarizer {
	return &resultSummarizer{
		client: client,
		logger: logger.Named("result-summarizer"),
	}
}

func (s *resultSummarizer) Summarize(ctx context.Context, question string, columns []string, rows [][]any) (*models.Summary, error) {
	if len(rows) > MaxSummaryRows {
		rows = rows[:MaxSummaryRows]
	}

	prompt := prompts.BuildResultSummarizerPrompt(question, columns, rows, IsTimeSeries(columns))
	reply, err := s.client.GenerateResponse(llm.WithQuestion(ctx, question), prompt, "", 0)
	if err != nil {
		return nil, fmt.Errorf("result summarization: %w", err)
	}

	summary, err := ParseSummaryContent(reply.Content, columns)
	if err != nil {
		s.logger.Warn("Unusable summarizer output",
			zap.String("log_id", reply.LogID),
			zap.Error(err))
		return nil, err
	}
	return summary, nil
}

// ParseSummaryContent decodes and validates a summarizer reply. A reply
// without summary text is invalid. Axis labels
// that are not result columns are dropped and pie charts lose their axes.
func ParseSummaryContent(content string, columns []string) (*models.Summary, error) {
	summary, err := llm.ParseJSONResponse[models.Summary](content)
	if err != nil {
		return nil, fmt.Errorf("%w: result summarizer: %v", apperrors.ErrInvalidAgentOutput, err)
	}
	summary.Summary = strings.TrimSpace(summary.Summary)
	if summary.Summary == "" {
		return nil, fmt.Errorf("%w: result summarizer: summary missing", apperrors.ErrInvalidAgentOutput)
	}

	if summary.Chart != nil && summary.Chart.Type == "" && len(summary.Chart.XAxis) == 0 && len(summary.Chart.YAxis) == 0 {
		summary.Chart = nil
	}
	if summary.Chart != nil {
		chart := summary.Chart
		chart.Type = strings.ToLower(strings.TrimSpace(chart.Type))
		switch chart.Type {
		case models.ChartLine, models.ChartBar, models.ChartScatter:
			chart.XAxis = keepColumns(chart.XAxis, columns)
			chart.YAxis = keepColumns(chart.YAxis, columns)
		case models.ChartPie:
			chart.XAxis = nil
			chart.YAxis = nil
		default:
			return nil, fmt.Errorf("%w: unsupported chart type %q", apperrors.ErrInvalidAgentOutput, chart.Type)
		}
	}

	return &summary, nil
}

func keepColumns(axis []string, columns []string) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	var kept []string
	for _, a := range axis {
		if known[a] {
			kept = append(kept, a)
		}
	}
	return kept
}

var _ ResultSummarizer = (*resultSummarizer)(nil)
