package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/logging"
)

// Execute runs query and fetches every row. Text and binary values come back
// as strings; DATE and DATETIME columns stay in their textual form.
func (a *Adapter) Execute(ctx context.Context, query string) (*datasource.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", apperrors.ErrExecutionFailed)
	}

	if a.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.queryTimeout)
		defer cancel()
	}

	start := time.Now()

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, a.executionError(query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, a.executionError(query, err)
	}

	result := &datasource.QueryResult{
		Columns: columns,
		Rows:    make([][]any, 0),
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, a.executionError(query, err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, a.executionError(query, err)
	}

	result.RowCount = len(result.Rows)
	result.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000.0

	a.logger.Debug("Query executed",
		zap.Int("rows", result.RowCount),
		zap.Float64("elapsed_ms", result.ElapsedMS))

	return result, nil
}

func (a *Adapter) executionError(query string, err error) error {
	a.logger.Warn("Query failed",
		zap.String("query", logging.SanitizeQuery(query)),
		zap.String("error", logging.SanitizeError(err)))
	return fmt.Errorf("%w: %s", apperrors.ErrExecutionFailed, engineMessage(err))
}

// engineMessage keeps the server's message and drops the driver's code prefix.
func engineMessage(err error) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Message
	}
	return logging.SanitizeError(err)
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.DateTime)
	default:
		return val
	}
}
