package apperrors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Lookup misses. Each wraps ErrNotFound so callers can match either.
	ErrDatabaseNotFound = notFound("database not found")
	ErrTableNotFound    = notFound("table not found")
	ErrColumnNotFound   = notFound("column not found")
	ErrSchemaNotFound   = notFound("schema not found")
	ErrSessionNotFound  = notFound("session not found")

	ErrConnectionFailed            = errors.New("connection failed")
	ErrInvalidConnectionDescriptor = errors.New("invalid connection descriptor")
	ErrNoQueryInSession            = errors.New("no query in session")
	ErrInvalidAgentOutput          = errors.New("invalid agent output")
	ErrNoRelevantTables            = errors.New("no relevant tables")
	ErrExecutionFailed             = errors.New("query execution failed")
	ErrInvalidQuestion             = errors.New("invalid question")
	ErrInvalidInput                = errors.New("invalid input")
	ErrCredentialsKeyMismatch      = errors.New("connection info was encrypted with a different key")
)

type notFoundError struct {
	msg string
}

func notFound(msg string) error {
	return &notFoundError{msg: msg}
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
