package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/audit"
	"github.com/ydh4481/llm-ddp/pkg/metrics"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/repositories"
	"github.com/ydh4481/llm-ddp/pkg/sql"
)

// QueryExecutionService runs the query stored in a generation session against
// its target database.
type QueryExecutionService interface {
	// Execute resolves sessionID to its generated query, runs it on the
	// database and records the outcome. With summarize set, non-empty
	// results are described by the result summarizer.
	Execute(ctx context.Context, databaseID int64, sessionID string, summarize bool) (*models.ExecutionResult, error)

	// History lists recent execution log records for a database, newest first.
	History(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error)
}

type queryExecutionService struct {
	databases  DatabaseService
	sessions   repositories.InteractionLogRepository
	executions repositories.ExecutionLogRepository
	summarizer ResultSummarizer
	auditor    *audit.SecurityAuditor
	logger     *zap.Logger
}

// NewQueryExecutionService creates a new query execution service with dependencies.
func NewQueryExecutionService(
	databases DatabaseService,
	sessions repositories.InteractionLogRepository,
	executions repositories.ExecutionLogRepository,
	summarizer ResultSummarizer,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) QueryExecutionService {
	return &queryExecutionService{
		databases:  databases,
		sessions:   sessions,
		executions: executions,
		summarizer: summarizer,
		auditor:    auditor,
		logger:     logger.Named("query-execution"),
	}
}

func (s *queryExecutionService) Execute(ctx context.Context, databaseID int64, sessionID string, summarize bool) (*models.ExecutionResult, error) {
	if _, err := s.databases.Get(ctx, databaseID); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	generated := ParseGenerationContent(session.ResponseContent)
	if !generated.OK() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoQueryInSession, sessionID)
	}

	validation := sql.ValidateAndNormalize(generated.Query)
	if validation.Error != nil {
		s.auditor.LogUnsafeGeneratedSQL(ctx, databaseID, sessionID, audit.GeneratedSQLDetails{
			Query:  generated.Query,
			Reason: validation.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoQueryInSession, validation.Error)
	}

	conn, _, err := s.databases.Connect(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Warn("Failed to close target connection", zap.Error(cerr))
		}
	}()

	result, err := conn.Execute(ctx, validation.NormalizedSQL)
	if err != nil {
		s.record(ctx, &models.QueryExecutionLog{
			DatabaseID:   &databaseID,
			Query:        generated.Query,
			LLMLogID:     &sessionID,
			Status:       models.ExecutionStatusError,
			ErrorMessage: err.Error(),
		})
		metrics.ObserveQueryExecution(models.ExecutionStatusError, 0, 0)
		if !errors.Is(err, apperrors.ErrExecutionFailed) {
			err = fmt.Errorf("%w: %v", apperrors.ErrExecutionFailed, err)
		}
		return nil, err
	}

	s.record(ctx, &models.QueryExecutionLog{
		DatabaseID: &databaseID,
		Query:      generated.Query,
		LLMLogID:   &sessionID,
		RowCount:   result.RowCount,
		ElapsedMS:  result.ElapsedMS,
		Status:     models.ExecutionStatusSuccess,
	})
	metrics.ObserveQueryExecution(models.ExecutionStatusSuccess, result.RowCount, result.ElapsedMS)
	s.auditor.LogQueryExecution(ctx, databaseID, sessionID, result.RowCount)

	out := &models.ExecutionResult{
		Columns:   result.Columns,
		Rows:      result.Rows,
		RowCount:  result.RowCount,
		ElapsedMS: result.ElapsedMS,
	}

	s.logger.Info("Executed session query",
		zap.Int64("database_id", databaseID),
		zap.String("session_id", sessionID),
		zap.Int("row_count", result.RowCount),
		zap.Float64("elapsed_ms", result.ElapsedMS))

	if !summarize {
		return out, nil
	}
	if result.RowCount == 0 {
		out.Summary = models.NoDataSummary
		return out, nil
	}

	summary, err := s.summarizer.Summarize(ctx, session.Question, result.Columns, result.Rows)
	if err != nil {
		s.logger.Warn("Result summary unavailable",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return out, nil
	}
	out.Summary = summary.Summary
	out.Chart = summary.Chart
	return out, nil
}

// record writes an execution log entry. A logging failure never fails the execution.
func (s *queryExecutionService) record(ctx context.Context, entry *models.QueryExecutionLog) {
	if err := s.executions.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to write execution log",
			zap.String("status", entry.Status),
			zap.Error(err))
	}
}

func (s *queryExecutionService) History(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error) {
	if _, err := s.databases.Get(ctx, databaseID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.executions.ListByDatabase(ctx, databaseID, limit)
}

var _ QueryExecutionService = (*queryExecutionService)(nil)
