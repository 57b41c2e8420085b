package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/services"
)

// GenerateRequest is the body of a generation call.
type GenerateRequest struct {
	Question string `json:"question"`
}

// QueryHandler exposes query generation and execution.
type QueryHandler struct {
	generation services.SQLGenerationService
	execution  services.QueryExecutionService
	logger     *zap.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(generation services.SQLGenerationService, execution services.QueryExecutionService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		generation: generation,
		execution:  execution,
		logger:     logger.Named("query-handler"),
	}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate-sql/db/{id}", h.GenerateSQL)
	mux.HandleFunc("POST /api/execute-sql/db/{id}/{session_id}", h.ExecuteSQL)
}

// GenerateSQL handles POST /api/generate-sql/db/{id}. The payload is the
// generation result, {"query", "result", "id"} or {"result", "message", "id"}.
func (h *QueryHandler) GenerateSQL(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req GenerateRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.generation.Generate(r.Context(), id, req.Question)
	if err != nil && result == nil {
		writeServiceError(w, h.logger, "generate sql", err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = StatusForError(err)
	}
	if werr := WritePayload(w, status, result); werr != nil {
		h.logger.Error("Failed to write response", zap.Error(werr))
	}
}

// ExecuteSQL handles POST /api/execute-sql/db/{id}/{session_id}?summarize=true
func (h *QueryHandler) ExecuteSQL(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "No query provided")
		return
	}

	result, err := h.execution.Execute(r.Context(), id, sessionID, queryBool(r, "summarize"))
	if err != nil {
		writeServiceError(w, h.logger, "execute sql", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, result)
}
