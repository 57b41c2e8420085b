package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ydh4481/llm-ddp/pkg/database"
	"github.com/ydh4481/llm-ddp/pkg/models"
)

// ExecutionLogRepository appends query execution records.
type ExecutionLogRepository interface {
	Create(ctx context.Context, entry *models.QueryExecutionLog) error
	// ListByDatabase returns the most recent executions first.
	ListByDatabase(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error)
}

type executionLogRepository struct {
	db *database.DB
}

// NewExecutionLogRepository creates a new execution log repository.
func NewExecutionLogRepository(db *database.DB) ExecutionLogRepository {
	return &executionLogRepository{db: db}
}

func (r *executionLogRepository) Create(ctx context.Context, e *models.QueryExecutionLog) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `
		INSERT INTO ddp_query_execution_logs (
			id, database_id, query, llm_log_id, row_count, elapsed_ms, status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.DatabaseID,
		e.Query,
		e.LLMLogID,
		e.RowCount,
		e.ElapsedMS,
		e.Status,
		e.ErrorMessage,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create execution log: %w", err)
	}
	return nil
}

func (r *executionLogRepository) ListByDatabase(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, database_id, query, llm_log_id, row_count, elapsed_ms, status, error_message, created_at
		FROM ddp_query_execution_logs
		WHERE database_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, databaseID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.QueryExecutionLog, 0)
	for rows.Next() {
		var e models.QueryExecutionLog
		if err := rows.Scan(&e.ID, &e.DatabaseID, &e.Query, &e.LLMLogID, &e.RowCount,
			&e.ElapsedMS, &e.Status, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}
		logs = append(logs, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}
	return logs, nil
}

var _ ExecutionLogRepository = (*executionLogRepository)(nil)
