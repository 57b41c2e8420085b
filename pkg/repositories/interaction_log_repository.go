package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/database"
	"github.com/ydh4481/llm-ddp/pkg/models"
)

// InteractionLogRepository persists model interactions. Records are
// immutable; the generator's record id is the session handle used by execution.
type InteractionLogRepository interface {
	Create(ctx context.Context, entry *models.LLMLog) error
	// GetByID returns apperrors.ErrSessionNotFound for an unknown id.
	GetByID(ctx context.Context, id string) (*models.LLMLog, error)
}

type interactionLogRepository struct {
	db *database.DB
}

// NewInteractionLogRepository creates a new interaction log repository.
func NewInteractionLogRepository(db *database.DB) InteractionLogRepository {
	return &interactionLogRepository{db: db}
}

func (r *interactionLogRepository) Create(ctx context.Context, e *models.LLMLog) error {
	query := `
		INSERT INTO ddp_llm_logs (
			id, question, response_content, model_name,
			prompt_tokens, completion_tokens, total_tokens, agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.Question,
		e.ResponseContent,
		e.ModelName,
		e.PromptTokens,
		e.CompletionTokens,
		e.TotalTokens,
		e.Agent,
	).Scan(&e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("interaction %s already logged: %w", e.ID, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create interaction log: %w", err)
	}
	return nil
}

func (r *interactionLogRepository) GetByID(ctx context.Context, id string) (*models.LLMLog, error) {
	query := `
		SELECT id, question, response_content, model_name,
		       prompt_tokens, completion_tokens, total_tokens, agent, created_at
		FROM ddp_llm_logs
		WHERE id = $1`

	var e models.LLMLog
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.Question,
		&e.ResponseContent,
		&e.ModelName,
		&e.PromptTokens,
		&e.CompletionTokens,
		&e.TotalTokens,
		&e.Agent,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get interaction log: %w", err)
	}
	return &e, nil
}

var _ InteractionLogRepository = (*interactionLogRepository)(nil)
