package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ydh4481/llm-ddp/pkg/jsonutil"
)

// Result tags used by the query generator's JSON contract.
const (
	ResultSuccess = "SUCCESS"
	ResultError   = "ERROR"
)

// NoDataSummary is returned instead of calling the summarizer for empty results.
const NoDataSummary = "데이터가 없습니다."

// GenerationResult is the parsed outcome of one query generation call.
// SessionID is set whenever the interaction was logged, including ERROR results.
type GenerationResult struct {
	Status    string `json:"result"`
	Query     string `json:"query,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"id,omitempty"`
}

// OK reports whether the generator produced a usable query.
func (r *GenerationResult) OK() bool {
	return r != nil && r.Status == ResultSuccess && r.Query != ""
}

// Chart types the summarizer may recommend.
const (
	ChartLine    = "line"
	ChartBar     = "bar"
	ChartPie     = "pie"
	ChartScatter = "scatter"
)

// Chart is the summarizer's visualization hint. Axis values always name
// result columns.
type Chart struct {
	Type  string              `json:"type"`
	XAxis jsonutil.StringList `json:"x_axis,omitempty"`
	YAxis jsonutil.StringList `json:"y_axis,omitempty"`
}

// MarshalJSON renders axes in the per-type shape: line and bar use a single
// x axis column, scatter uses lists and pie carries no axes.
func (c Chart) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": c.Type}
	switch c.Type {
	case ChartLine, ChartBar:
		if x := c.XAxis.First(); x != "" {
			out["x_axis"] = x
		}
		if len(c.YAxis) > 0 {
			out["y_axis"] = []string(c.YAxis)
		}
	case ChartScatter:
		if len(c.XAxis) > 0 {
			out["x_axis"] = []string(c.XAxis)
		}
		if len(c.YAxis) > 0 {
			out["y_axis"] = []string(c.YAxis)
		}
	}
	return json.Marshal(out)
}

// Summary is the parsed summarizer output.
type Summary struct {
	Summary string `json:"summary"`
	Chart   *Chart `json:"chart,omitempty"`
}

// ExecutionResult is returned by the query executor.
type ExecutionResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	ElapsedMS float64  `json:"elapsed_ms"`
	Summary   string   `json:"summary,omitempty"`
	Chart     *Chart   `json:"chart,omitempty"`
}

// Execution log statuses.
const (
	ExecutionStatusSuccess = "SUCCESS"
	ExecutionStatusError   = "ERROR"
)

// QueryExecutionLog records one attempt to run a generated query.
type QueryExecutionLog struct {
	ID           uuid.UUID `json:"id"`
	DatabaseID   *int64    `json:"database_id,omitempty"`
	Query        string    `json:"query"`
	LLMLogID     *string   `json:"llm_log_id,omitempty"`
	RowCount     int       `json:"row_count"`
	ElapsedMS    float64   `json:"elapsed_ms"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
