package llm

import "context"

type contextKey string

const questionContextKey contextKey = "llm_question"

// WithQuestion attaches the user's question so RecordingClient can store it
// with the interaction log entry.
func WithQuestion(ctx context.Context, question string) context.Context {
	return context.WithValue(ctx, questionContextKey, question)
}

// QuestionFromContext returns the question attached by WithQuestion.
func QuestionFromContext(ctx context.Context) string {
	q, _ := ctx.Value(questionContextKey).(string)
	return q
}
