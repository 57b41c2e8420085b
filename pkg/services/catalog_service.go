package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/metrics"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/repositories"
)

// TableDetail is a cataloged table with its columns in column_seq order.
type TableDetail struct {
	*models.Table
	Columns []*models.Column `json:"columns"`
}

// CatalogService introspects target databases and maintains their catalog.
type CatalogService interface {
	// ExtractSchemas lists user schemas reachable through an ad-hoc descriptor.
	ExtractSchemas(ctx context.Context, engine, descriptor string) ([]string, error)

	// ExtractTables introspects an ad-hoc descriptor into grouped table metadata.
	ExtractTables(ctx context.Context, engine, descriptor string, schemas []string) ([]models.TableMetadata, error)

	// Import upserts tables and columns, one transaction per table. Tables
	// submitted without columns have them introspected from the live database.
	Import(ctx context.Context, databaseID int64, tables []models.TableMetadata) (*models.ImportSummary, error)

	// Sync introspects a stored database and imports everything it finds.
	Sync(ctx context.Context, databaseID int64, schemas []string) (*models.ImportSummary, error)

	ListTables(ctx context.Context, databaseID int64) ([]*models.Table, error)
	GetTable(ctx context.Context, id int64) (*TableDetail, error)
	UpdateTable(ctx context.Context, table *models.Table) error
	DeleteTable(ctx context.Context, id int64) error

	GetColumn(ctx context.Context, id int64) (*models.Column, error)
	UpdateColumn(ctx context.Context, column *models.Column) error
	DeleteColumn(ctx context.Context, id int64) error
}

type catalogService struct {
	catalog   repositories.CatalogRepository
	databases DatabaseService
	factory   datasource.AdapterFactory
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service with dependencies.
func NewCatalogService(
	catalog repositories.CatalogRepository,
	databases DatabaseService,
	factory datasource.AdapterFactory,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		catalog:   catalog,
		databases: databases,
		factory:   factory,
		logger:    logger.Named("catalog-service"),
	}
}

func (s *catalogService) ExtractSchemas(ctx context.Context, engine, descriptor string) ([]string, error) {
	conn, err := s.open(ctx, engine, descriptor)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return conn.ListSchemas(ctx)
}

func (s *catalogService) ExtractTables(ctx context.Context, engine, descriptor string, schemas []string) ([]models.TableMetadata, error) {
	conn, err := s.open(ctx, engine, descriptor)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return introspect(ctx, conn, schemas)
}

func (s *catalogService) open(ctx context.Context, engine, descriptor string) (datasource.Connection, error) {
	if strings.TrimSpace(descriptor) == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidConnectionDescriptor, MsgNoConnectionInfo)
	}
	if engine == "" {
		engine = models.DefaultEngine
	}
	return s.factory.Open(ctx, engine, descriptor)
}

func introspect(ctx context.Context, conn datasource.SchemaIntrospector, schemas []string) ([]models.TableMetadata, error) {
	facts, err := conn.IntrospectColumns(ctx, schemas)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	return datasource.ToTableMetadata(datasource.GroupByTable(facts)), nil
}

func (s *catalogService) Import(ctx context.Context, databaseID int64, tables []models.TableMetadata) (*models.ImportSummary, error) {
	if _, err := s.databases.Get(ctx, databaseID); err != nil {
		return nil, err
	}

	for _, t := range tables {
		if strings.TrimSpace(t.TableName) == "" {
			return nil, fmt.Errorf("%w: table_name is required", apperrors.ErrInvalidInput)
		}
	}

	tables, err := s.fillMissingColumns(ctx, databaseID, tables)
	if err != nil {
		return nil, err
	}

	return s.importTables(ctx, databaseID, tables)
}

// fillMissingColumns introspects the live database for tables submitted
// without columns. It connects only when at least one such table exists.
func (s *catalogService) fillMissingColumns(ctx context.Context, databaseID int64, tables []models.TableMetadata) ([]models.TableMetadata, error) {
	var schemas []string
	seen := make(map[string]bool)
	for _, t := range tables {
		if len(t.Columns) == 0 && !seen[t.SchemaName] {
			seen[t.SchemaName] = true
			schemas = append(schemas, t.SchemaName)
		}
	}
	if len(schemas) == 0 {
		return tables, nil
	}

	conn, _, err := s.databases.Connect(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	live, err := introspect(ctx, conn, schemas)
	if err != nil {
		return nil, err
	}
	byName := make(map[[2]string][]models.ColumnInput, len(live))
	for _, t := range live {
		byName[[2]string{t.SchemaName, t.TableName}] = t.Columns
	}

	out := make([]models.TableMetadata, len(tables))
	for i, t := range tables {
		if len(t.Columns) == 0 {
			t.Columns = byName[[2]string{t.SchemaName, t.TableName}]
		}
		out[i] = t
	}
	return out, nil
}

func (s *catalogService) importTables(ctx context.Context, databaseID int64, tables []models.TableMetadata) (*models.ImportSummary, error) {
	summary := &models.ImportSummary{}
	for _, t := range tables {
		_, cols, err := s.catalog.UpsertTableWithColumns(ctx, databaseID, models.TableInput{
			SchemaName:  t.SchemaName,
			Name:        t.TableName,
			Description: t.TableDescription,
		}, t.Columns)
		if err != nil {
			s.logger.Error("Failed to import table",
				zap.Int64("database_id", databaseID),
				zap.String("table", t.SchemaName+"."+t.TableName),
				zap.Error(err))
			return summary, fmt.Errorf("import %s.%s: %w", t.SchemaName, t.TableName, err)
		}
		summary.Tables++
		summary.Columns += len(cols)
	}

	metrics.ObserveCatalogImport(summary.Tables, summary.Columns)
	s.logger.Info("Imported catalog",
		zap.Int64("database_id", databaseID),
		zap.Int("tables", summary.Tables),
		zap.Int("columns", summary.Columns))
	return summary, nil
}

func (s *catalogService) Sync(ctx context.Context, databaseID int64, schemas []string) (*models.ImportSummary, error) {
	conn, db, err := s.databases.Connect(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// A descriptor naming a database scopes the sync to that schema.
	if len(schemas) == 0 {
		if name := descriptorDatabase(db.ConnectionInfo); name != "" {
			schemas = []string{name}
		}
	}

	tables, err := introspect(ctx, conn, schemas)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: nothing to sync in %v", apperrors.ErrSchemaNotFound, schemas)
	}
	return s.importTables(ctx, databaseID, tables)
}

func (s *catalogService) ListTables(ctx context.Context, databaseID int64) ([]*models.Table, error) {
	if _, err := s.databases.Get(ctx, databaseID); err != nil {
		return nil, err
	}
	return s.catalog.ListTables(ctx, databaseID)
}

func (s *catalogService) GetTable(ctx context.Context, id int64) (*TableDetail, error) {
	table, err := s.catalog.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}
	columns, err := s.catalog.ListColumns(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TableDetail{Table: table, Columns: columns}, nil
}

func (s *catalogService) UpdateTable(ctx context.Context, table *models.Table) error {
	if strings.TrimSpace(table.Name) == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}
	return s.catalog.UpdateTable(ctx, table)
}

func (s *catalogService) DeleteTable(ctx context.Context, id int64) error {
	return s.catalog.DeleteTable(ctx, id)
}

func (s *catalogService) GetColumn(ctx context.Context, id int64) (*models.Column, error) {
	return s.catalog.GetColumn(ctx, id)
}

func (s *catalogService) UpdateColumn(ctx context.Context, column *models.Column) error {
	if strings.TrimSpace(column.Name) == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}
	err := s.catalog.UpdateColumn(ctx, column)
	if errors.Is(err, apperrors.ErrConflict) {
		return fmt.Errorf("column name or column_seq already used in table %d: %w", column.TableID, err)
	}
	return err
}

func (s *catalogService) DeleteColumn(ctx context.Context, id int64) error {
	return s.catalog.DeleteColumn(ctx, id)
}

// descriptorDatabase returns the default database named by a descriptor.
func descriptorDatabase(descriptor string) string {
	var fields map[string]any
	if err := json.Unmarshal([]byte(descriptor), &fields); err != nil {
		return ""
	}
	for _, key := range []string{"database", "db"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

var _ CatalogService = (*catalogService)(nil)
