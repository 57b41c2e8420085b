package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/services"
)

// DatabaseResponse is a registered database as returned by the API.
// Connection info never leaves the service.
type DatabaseResponse struct {
	ID          int64  `json:"id"`
	EngName     string `json:"eng_name"`
	KorName     string `json:"kor_name"`
	Description string `json:"description"`
	Engine      string `json:"engine"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toDatabaseResponse(db *models.Database) DatabaseResponse {
	return DatabaseResponse{
		ID:          db.ID,
		EngName:     db.EngName,
		KorName:     db.KorName,
		Description: db.Description,
		Engine:      db.Engine,
		CreatedAt:   db.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   db.UpdatedAt.Format(time.RFC3339),
	}
}

// DatabaseRequest is the body of create and update calls.
type DatabaseRequest struct {
	EngName        string     `json:"eng_name"`
	KorName        string     `json:"kor_name"`
	Description    string     `json:"description"`
	Engine         string     `json:"engine"`
	ConnectionInfo Descriptor `json:"connection_info"`
	// Probe requires the descriptor to connect before it is stored.
	Probe bool `json:"probe"`
}

// ConnectRequest is the body of the connectivity probe.
type ConnectRequest struct {
	Engine         string     `json:"engine"`
	ConnectionInfo Descriptor `json:"connection_info"`
}

// DatabasesHandler handles database registration and probing.
type DatabasesHandler struct {
	databases  services.DatabaseService
	executions services.QueryExecutionService
	logger     *zap.Logger
}

// NewDatabasesHandler creates a new databases handler.
func NewDatabasesHandler(databases services.DatabaseService, executions services.QueryExecutionService, logger *zap.Logger) *DatabasesHandler {
	return &DatabasesHandler{
		databases:  databases,
		executions: executions,
		logger:     logger.Named("databases-handler"),
	}
}

// RegisterRoutes registers the databases handler's routes on the given mux.
func (h *DatabasesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/db", h.List)
	mux.HandleFunc("POST /api/db", h.Create)
	mux.HandleFunc("POST /api/db/connect", h.Connect)
	mux.HandleFunc("GET /api/db/{id}", h.Get)
	mux.HandleFunc("PUT /api/db/{id}", h.Update)
	mux.HandleFunc("DELETE /api/db/{id}", h.Delete)
	mux.HandleFunc("GET /api/db/{id}/executions", h.Executions)
}

// List handles GET /api/db
func (h *DatabasesHandler) List(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.databases.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "list databases", err)
		return
	}

	data := make([]DatabaseResponse, len(dbs))
	for i, db := range dbs {
		data[i] = toDatabaseResponse(db)
	}
	writeData(w, h.logger, http.StatusOK, data)
}

// Create handles POST /api/db
func (h *DatabasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DatabaseRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.ConnectionInfo == "" {
		writeError(w, h.logger, http.StatusBadRequest, services.MsgNoConnectionInfo)
		return
	}

	db, err := h.databases.Create(r.Context(), &models.Database{
		EngName:        req.EngName,
		KorName:        req.KorName,
		Description:    req.Description,
		Engine:         req.Engine,
		ConnectionInfo: string(req.ConnectionInfo),
	}, req.Probe)
	if err != nil {
		writeServiceError(w, h.logger, "create database", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, toDatabaseResponse(db))
}

// Get handles GET /api/db/{id}
func (h *DatabasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	db, err := h.databases.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get database", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, toDatabaseResponse(db))
}

// Update handles PUT /api/db/{id}. Omitted connection_info keeps the stored one.
func (h *DatabasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req DatabaseRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	db, err := h.databases.Update(r.Context(), &models.Database{
		ID:             id,
		EngName:        req.EngName,
		KorName:        req.KorName,
		Description:    req.Description,
		ConnectionInfo: string(req.ConnectionInfo),
	}, req.Probe)
	if err != nil {
		writeServiceError(w, h.logger, "update database", err)
		return
	}

	stored, err := h.databases.Get(r.Context(), db.ID)
	if err != nil {
		writeServiceError(w, h.logger, "get database", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, toDatabaseResponse(stored))
}

// Delete handles DELETE /api/db/{id}
func (h *DatabasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.databases.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "delete database", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connect handles POST /api/db/connect. A failed probe is a 400 carrying
// the probe message.
func (h *DatabasesHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	check := h.databases.CheckConnection(r.Context(), req.Engine, string(req.ConnectionInfo))
	if !check.Success {
		writeError(w, h.logger, http.StatusBadRequest, check.Message)
		return
	}
	writeData(w, h.logger, http.StatusOK, check)
}

// Executions handles GET /api/db/{id}/executions?limit=N
func (h *DatabasesHandler) Executions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.executions.History(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, h.logger, "list executions", err)
		return
	}
	if history == nil {
		history = []*models.QueryExecutionLog{}
	}
	writeData(w, h.logger, http.StatusOK, history)
}
