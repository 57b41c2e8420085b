// Package audit provides security audit logging for SIEM consumption.
// Events are emitted as structured JSON under the "security_audit" logger.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventQuestionInjection is logged when libinjection flags a question.
	EventQuestionInjection SecurityEventType = "question_injection"
	// EventUnsafeGeneratedSQL is logged when a generated query fails validation.
	EventUnsafeGeneratedSQL SecurityEventType = "unsafe_generated_sql"
	// EventQueryExecution is logged for every executed session query.
	EventQueryExecution SecurityEventType = "query_execution"
)

// Severity levels.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

const maxLoggedTextLength = 500

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	EventType  SecurityEventType `json:"event_type"`
	DatabaseID int64             `json:"database_id"`
	SessionID  string            `json:"session_id,omitempty"`
	Details    any               `json:"details"`
	Severity   string            `json:"severity"`
}

// QuestionInjectionDetails describes a question rejected before prompting.
type QuestionInjectionDetails struct {
	Question    string `json:"question"`
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
}

// GeneratedSQLDetails describes a generated query that was not run.
type GeneratedSQLDetails struct {
	Query  string `json:"query"`
	Reason string `json:"reason"`
}

// SecurityAuditor logs security events. A nil auditor discards events.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

func (a *SecurityAuditor) emit(level func(string, ...zap.Field), msg string, event SecurityEvent) {
	event.ID = uuid.New()
	event.Timestamp = time.Now().UTC()
	eventJSON, _ := json.Marshal(event)

	level(msg,
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.Int64("database_id", event.DatabaseID),
		zap.String("session_id", event.SessionID),
		zap.String("severity", event.Severity),
	)
}

// LogQuestionInjection records a question that libinjection classified as
// SQL injection. Logged at ERROR level with critical severity.
func (a *SecurityAuditor) LogQuestionInjection(ctx context.Context, databaseID int64, details QuestionInjectionDetails) {
	if a == nil {
		return
	}
	details.Question = logging.TruncateString(details.Question, maxLoggedTextLength)
	a.emit(a.logger.Error, "SQL injection attempt detected", SecurityEvent{
		EventType:  EventQuestionInjection,
		DatabaseID: databaseID,
		Details:    details,
		Severity:   SeverityCritical,
	})
}

// LogUnsafeGeneratedSQL records a generated query rejected by validation,
// such as a statement that is not a single SELECT.
func (a *SecurityAuditor) LogUnsafeGeneratedSQL(ctx context.Context, databaseID int64, sessionID string, details GeneratedSQLDetails) {
	if a == nil {
		return
	}
	details.Query = logging.SanitizeQuery(details.Query)
	a.emit(a.logger.Warn, "Generated SQL rejected", SecurityEvent{
		EventType:  EventUnsafeGeneratedSQL,
		DatabaseID: databaseID,
		SessionID:  sessionID,
		Details:    details,
		Severity:   SeverityWarning,
	})
}

// LogQueryExecution records an executed session query.
func (a *SecurityAuditor) LogQueryExecution(ctx context.Context, databaseID int64, sessionID string, rowCount int) {
	if a == nil {
		return
	}
	a.emit(a.logger.Info, "Query executed", SecurityEvent{
		EventType:  EventQueryExecution,
		DatabaseID: databaseID,
		SessionID:  sessionID,
		Details:    map[string]int{"row_count": rowCount},
		Severity:   SeverityInfo,
	})
}
