package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/services"
)

// ============================================================================
// Service mocks. Unset funcs panic so tests only stub what they exercise.
// ============================================================================

type mockDatabaseService struct {
	CreateFunc          func(ctx context.Context, db *models.Database, probe bool) (*models.Database, error)
	GetFunc             func(ctx context.Context, id int64) (*models.Database, error)
	ListFunc            func(ctx context.Context) ([]*models.Database, error)
	UpdateFunc          func(ctx context.Context, db *models.Database, probe bool) (*models.Database, error)
	DeleteFunc          func(ctx context.Context, id int64) error
	CheckConnectionFunc func(ctx context.Context, engine, descriptor string) *services.ConnectionCheck
}

func (m *mockDatabaseService) Create(ctx context.Context, db *models.Database, probe bool) (*models.Database, error) {
	return m.CreateFunc(ctx, db, probe)
}

func (m *mockDatabaseService) Get(ctx context.Context, id int64) (*models.Database, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockDatabaseService) List(ctx context.Context) ([]*models.Database, error) {
	return m.ListFunc(ctx)
}

func (m *mockDatabaseService) Update(ctx context.Context, db *models.Database, probe bool) (*models.Database, error) {
	return m.UpdateFunc(ctx, db, probe)
}

func (m *mockDatabaseService) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockDatabaseService) CheckConnection(ctx context.Context, engine, descriptor string) *services.ConnectionCheck {
	return m.CheckConnectionFunc(ctx, engine, descriptor)
}

func (m *mockDatabaseService) Connect(ctx context.Context, id int64) (datasource.Connection, *models.Database, error) {
	panic("not used by handlers")
}

type mockCatalogService struct {
	ExtractSchemasFunc func(ctx context.Context, engine, descriptor string) ([]string, error)
	ExtractTablesFunc  func(ctx context.Context, engine, descriptor string, schemas []string) ([]models.TableMetadata, error)
	ImportFunc         func(ctx context.Context, databaseID int64, tables []models.TableMetadata) (*models.ImportSummary, error)
	SyncFunc           func(ctx context.Context, databaseID int64, schemas []string) (*models.ImportSummary, error)
	ListTablesFunc     func(ctx context.Context, databaseID int64) ([]*models.Table, error)
	GetTableFunc       func(ctx context.Context, id int64) (*services.TableDetail, error)
	UpdateTableFunc    func(ctx context.Context, table *models.Table) error
	DeleteTableFunc    func(ctx context.Context, id int64) error
	GetColumnFunc      func(ctx context.Context, id int64) (*models.Column, error)
	UpdateColumnFunc   func(ctx context.Context, column *models.Column) error
	DeleteColumnFunc   func(ctx context.Context, id int64) error
}

func (m *mockCatalogService) ExtractSchemas(ctx context.Context, engine, descriptor string) ([]string, error) {
	return m.ExtractSchemasFunc(ctx, engine, descriptor)
}

func (m *mockCatalogService) ExtractTables(ctx context.Context, engine, descriptor string, schemas []string) ([]models.TableMetadata, error) {
	return m.ExtractTablesFunc(ctx, engine, descriptor, schemas)
}

func (m *mockCatalogService) Import(ctx context.Context, databaseID int64, tables []models.TableMetadata) (*models.ImportSummary, error) {
	return m.ImportFunc(ctx, databaseID, tables)
}

func (m *mockCatalogService) Sync(ctx context.Context, databaseID int64, schemas []string) (*models.ImportSummary, error) {
	return m.SyncFunc(ctx, databaseID, schemas)
}

func (m *mockCatalogService) ListTables(ctx context.Context, databaseID int64) ([]*models.Table, error) {
	return m.ListTablesFunc(ctx, databaseID)
}

func (m *mockCatalogService) GetTable(ctx context.Context, id int64) (*services.TableDetail, error) {
	return m.GetTableFunc(ctx, id)
}

func (m *mockCatalogService) UpdateTable(ctx context.Context, table *models.Table) error {
	return m.UpdateTableFunc(ctx, table)
}

func (m *mockCatalogService) DeleteTable(ctx context.Context, id int64) error {
	return m.DeleteTableFunc(ctx, id)
}

func (m *mockCatalogService) GetColumn(ctx context.Context, id int64) (*models.Column, error) {
	return m.GetColumnFunc(ctx, id)
}

func (m *mockCatalogService) UpdateColumn(ctx context.Context, column *models.Column) error {
	return m.UpdateColumnFunc(ctx, column)
}

func (m *mockCatalogService) DeleteColumn(ctx context.Context, id int64) error {
	return m.DeleteColumnFunc(ctx, id)
}

type mockMetadataService struct {
	GroupedMetadataFunc func(ctx context.Context, databaseID int64) ([]*services.TableDetail, error)
}

func (m *mockMetadataService) FormattedMetadata(ctx context.Context, databaseID int64) (string, error) {
	panic("not used by handlers")
}

func (m *mockMetadataService) FilteredMetadata(ctx context.Context, databaseID int64, question string) (string, error) {
	panic("not used by handlers")
}

func (m *mockMetadataService) GroupedMetadata(ctx context.Context, databaseID int64) ([]*services.TableDetail, error) {
	return m.GroupedMetadataFunc(ctx, databaseID)
}

type mockGenerationService struct {
	GenerateFunc func(ctx context.Context, databaseID int64, question string) (*models.GenerationResult, error)
}

func (m *mockGenerationService) Generate(ctx context.Context, databaseID int64, question string) (*models.GenerationResult, error) {
	return m.GenerateFunc(ctx, databaseID, question)
}

type mockExecutionService struct {
	ExecuteFunc func(ctx context.Context, databaseID int64, sessionID string, summarize bool) (*models.ExecutionResult, error)
	HistoryFunc func(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error)
}

func (m *mockExecutionService) Execute(ctx context.Context, databaseID int64, sessionID string, summarize bool) (*models.ExecutionResult, error) {
	return m.ExecuteFunc(ctx, databaseID, sessionID, summarize)
}

func (m *mockExecutionService) History(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error) {
	return m.HistoryFunc(ctx, databaseID, limit)
}

var (
	_ services.DatabaseService       = (*mockDatabaseService)(nil)
	_ services.CatalogService        = (*mockCatalogService)(nil)
	_ services.MetadataService       = (*mockMetadataService)(nil)
	_ services.SQLGenerationService  = (*mockGenerationService)(nil)
	_ services.QueryExecutionService = (*mockExecutionService)(nil)
)

// ============================================================================
// Helpers
// ============================================================================

// rawEnvelope keeps data undecoded so tests can decode it into a concrete type.
type rawEnvelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Code      int             `json:"code"`
	Timestamp string          `json:"timestamp"`
}

// serve routes a request through a mux with the given registrations.
func serve(t *testing.T, register func(mux *http.ServeMux), method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	register(mux)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) rawEnvelope {
	t.Helper()
	var env rawEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
