package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/services"
)

// ExtractRequest carries an ad-hoc descriptor to introspect.
type ExtractRequest struct {
	Engine         string     `json:"engine"`
	ConnectionInfo Descriptor `json:"connection_info"`
	SchemaList     []string   `json:"schema_list"`
}

// ImportRequest is the body of the metadata import endpoints. The meta
// route sends "metadata", the table route sends "table_list".
type ImportRequest struct {
	Metadata  []models.TableMetadata `json:"metadata"`
	TableList []models.TableMetadata `json:"table_list"`
}

// SyncRequest optionally scopes a sync to schemas.
type SyncRequest struct {
	SchemaList []string `json:"schema_list"`
}

// TableRequest updates a cataloged table.
type TableRequest struct {
	SchemaName  *string `json:"schema_name"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ColumnRequest updates a cataloged column. Absent fields keep their value.
type ColumnRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	DataType         *string `json:"data_type"`
	DefaultValue     *string `json:"default_value"`
	ColumnSeq        *int    `json:"column_seq"`
	IsNullable       *bool   `json:"is_nullable"`
	IsUnique         *bool   `json:"is_unique"`
	IsPrimaryKey     *bool   `json:"is_primary_key"`
	IsForeignKey     *bool   `json:"is_foreign_key"`
	ForeignKeyTable  *string `json:"foreign_key_table"`
	ForeignKeyColumn *string `json:"foreign_key_column"`
}

func (req *ColumnRequest) apply(c *models.Column) {
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.DataType != nil {
		c.DataType = *req.DataType
	}
	if req.DefaultValue != nil {
		c.DefaultValue = req.DefaultValue
	}
	if req.ColumnSeq != nil {
		c.ColumnSeq = *req.ColumnSeq
	}
	if req.IsNullable != nil {
		c.IsNullable = *req.IsNullable
	}
	if req.IsUnique != nil {
		c.IsUnique = *req.IsUnique
	}
	if req.IsPrimaryKey != nil {
		c.IsPrimaryKey = *req.IsPrimaryKey
	}
	if req.IsForeignKey != nil {
		c.IsForeignKey = *req.IsForeignKey
	}
	if req.ForeignKeyTable != nil {
		c.ForeignKeyTable = req.ForeignKeyTable
	}
	if req.ForeignKeyColumn != nil {
		c.ForeignKeyColumn = req.ForeignKeyColumn
	}
}

// CatalogHandler serves the metadata catalog and schema extraction.
type CatalogHandler struct {
	catalog  services.CatalogService
	metadata services.MetadataService
	logger   *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog services.CatalogService, metadata services.MetadataService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:  catalog,
		metadata: metadata,
		logger:   logger.Named("catalog-handler"),
	}
}

// RegisterRoutes registers the catalog handler's routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/extract/schema", h.ExtractSchema)
	mux.HandleFunc("POST /api/extract/table", h.ExtractTable)

	mux.HandleFunc("GET /api/db/{id}/meta", h.GetMeta)
	mux.HandleFunc("POST /api/db/{id}/meta", h.Import)
	mux.HandleFunc("POST /api/db/{id}/sync", h.Sync)
	mux.HandleFunc("GET /api/db/{id}/table", h.ListTables)
	mux.HandleFunc("POST /api/db/{id}/table", h.Import)

	mux.HandleFunc("GET /api/table/{id}", h.GetTable)
	mux.HandleFunc("PUT /api/table/{id}", h.UpdateTable)
	mux.HandleFunc("DELETE /api/table/{id}", h.DeleteTable)

	mux.HandleFunc("GET /api/column/{id}", h.GetColumn)
	mux.HandleFunc("PUT /api/column/{id}", h.UpdateColumn)
	mux.HandleFunc("DELETE /api/column/{id}", h.DeleteColumn)
}

// ExtractSchema handles POST /api/extract/schema
func (h *CatalogHandler) ExtractSchema(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	schemas, err := h.catalog.ExtractSchemas(r.Context(), req.Engine, string(req.ConnectionInfo))
	if err != nil {
		writeServiceError(w, h.logger, "extract schemas", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, map[string]any{"schemas": schemas})
}

// ExtractTable handles POST /api/extract/table
func (h *CatalogHandler) ExtractTable(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	tables, err := h.catalog.ExtractTables(r.Context(), req.Engine, string(req.ConnectionInfo), req.SchemaList)
	if err != nil {
		writeServiceError(w, h.logger, "extract tables", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, tables)
}

// GetMeta handles GET /api/db/{id}/meta
func (h *CatalogHandler) GetMeta(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	grouped, err := h.metadata.GroupedMetadata(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get metadata", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, grouped)
}

// Import handles POST /api/db/{id}/meta and POST /api/db/{id}/table
func (h *CatalogHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req ImportRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	tables := req.Metadata
	if tables == nil {
		tables = req.TableList
	}
	if len(tables) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "'metadata' is required")
		return
	}

	summary, err := h.catalog.Import(r.Context(), id, tables)
	if err != nil {
		writeServiceError(w, h.logger, "import metadata", err)
		return
	}
	writeData(w, h.logger, http.StatusCreated, summary)
}

// Sync handles POST /api/db/{id}/sync. The body is optional.
func (h *CatalogHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req SyncRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req, h.logger) {
		return
	}

	summary, err := h.catalog.Sync(r.Context(), id, req.SchemaList)
	if err != nil {
		writeServiceError(w, h.logger, "sync catalog", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, summary)
}

// ListTables handles GET /api/db/{id}/table
func (h *CatalogHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	tables, err := h.catalog.ListTables(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "list tables", err)
		return
	}
	if tables == nil {
		tables = []*models.Table{}
	}
	writeData(w, h.logger, http.StatusOK, tables)
}

// GetTable handles GET /api/table/{id}
func (h *CatalogHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	detail, err := h.catalog.GetTable(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get table", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, detail)
}

// UpdateTable handles PUT /api/table/{id}
func (h *CatalogHandler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req TableRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	detail, err := h.catalog.GetTable(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get table", err)
		return
	}
	table := *detail.Table
	if req.SchemaName != nil {
		table.SchemaName = *req.SchemaName
	}
	if req.Name != nil {
		table.Name = *req.Name
	}
	if req.Description != nil {
		table.Description = *req.Description
	}

	if err := h.catalog.UpdateTable(r.Context(), &table); err != nil {
		writeServiceError(w, h.logger, "update table", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, &table)
}

// DeleteTable handles DELETE /api/table/{id}
func (h *CatalogHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.catalog.DeleteTable(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "delete table", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetColumn handles GET /api/column/{id}
func (h *CatalogHandler) GetColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	column, err := h.catalog.GetColumn(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get column", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, column)
}

// UpdateColumn handles PUT /api/column/{id}
func (h *CatalogHandler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req ColumnRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	existing, err := h.catalog.GetColumn(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get column", err)
		return
	}
	column := *existing
	req.apply(&column)

	if err := h.catalog.UpdateColumn(r.Context(), &column); err != nil {
		writeServiceError(w, h.logger, "update column", err)
		return
	}
	writeData(w, h.logger, http.StatusOK, &column)
}

// DeleteColumn handles DELETE /api/column/{id}
func (h *CatalogHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.catalog.DeleteColumn(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "delete column", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
