package models

import "time"

// Agent names recorded on every interaction log entry.
const (
	AgentTableSelector    = "table_selector"
	AgentQueryGenerator   = "query_generator"
	AgentResultSummarizer = "result_summarizer"
)

// LLMLog is one persisted model interaction. Its ID doubles as the session
// handle that links query generation to a later execution.
type LLMLog struct {
	ID               string    `json:"id"`
	Question         string    `json:"question"`
	ResponseContent  string    `json:"response_content"`
	ModelName        string    `json:"model_name"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Agent            string    `json:"agent"`
	CreatedAt        time.Time `json:"created_at"`
}
