package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/audit"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/sql"
)

// Generation messages returned to API callers in ERROR payloads.
const (
	MsgEmptyQuestion    = "질문이 비어 있습니다."
	MsgNoMetadata       = "메타 정보가 없습니다."
	MsgNoRelevantTables = "No relevant tables found by LLM."
	MsgRejectedQuestion = "질문에 허용되지 않는 SQL 구문이 포함되어 있습니다."
)

// SQLGenerationService answers a natural-language question with a MySQL
// query for one registered database.
type SQLGenerationService interface {
	// Generate runs table selection and query generation. Request-level
	// rejections return an ERROR result together with a typed error so
	// callers can render the payload and pick a status. Other failures
	// return only the error.
	Generate(ctx context.Context, databaseID int64, question string) (*models.GenerationResult, error)
}

type sqlGenerationService struct {
	metadata  MetadataService
	generator QueryGenerator
	auditor   *audit.SecurityAuditor
	logger    *zap.Logger
}

// NewSQLGenerationService creates a new generation service with dependencies.
func NewSQLGenerationService(
	metadata MetadataService,
	generator QueryGenerator,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) SQLGenerationService {
	return &sqlGenerationService{
		metadata:  metadata,
		generator: generator,
		auditor:   auditor,
		logger:    logger.Named("sql-generation"),
	}
}

func rejected(message string, cause error) (*models.GenerationResult, error) {
	return &models.GenerationResult{Status: models.ResultError, Message: message}, cause
}

func (s *sqlGenerationService) Generate(ctx context.Context, databaseID int64, question string) (*models.GenerationResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return rejected(MsgEmptyQuestion, fmt.Errorf("%w: question is empty", apperrors.ErrInvalidQuestion))
	}
	if check := sql.CheckQuestion(question); check != nil {
		s.auditor.LogQuestionInjection(ctx, databaseID, audit.QuestionInjectionDetails{
			Question:    question,
			Fingerprint: check.Fingerprint,
		})
		return rejected(MsgRejectedQuestion, fmt.Errorf("%w: sql injection fingerprint %s", apperrors.ErrInvalidQuestion, check.Fingerprint))
	}

	metaInfo, err := s.metadata.FilteredMetadata(ctx, databaseID, question)
	switch {
	case errors.Is(err, errNoCatalogedTables):
		return rejected(MsgNoMetadata, err)
	case errors.Is(err, apperrors.ErrNoRelevantTables):
		return rejected(MsgNoRelevantTables, err)
	case err != nil:
		return nil, err
	}
	if strings.TrimSpace(metaInfo) == "" {
		return rejected(MsgNoMetadata, fmt.Errorf("%w: selected tables have no columns", apperrors.ErrNoRelevantTables))
	}

	result, err := s.generator.Generate(ctx, question, metaInfo)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generation finished",
		zap.Int64("database_id", databaseID),
		zap.String("session_id", result.SessionID),
		zap.String("result", result.Status))
	return result, nil
}

var _ SQLGenerationService = (*sqlGenerationService)(nil)
