package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/repositories"
)

// ============================================================================
// Mock Implementations
// ============================================================================

type storedDatabase struct {
	db     models.Database
	sealed string
}

// mockDatabaseRepository keeps databases in memory.
type mockDatabaseRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*storedDatabase

	createErr error
}

func newMockDatabaseRepository() *mockDatabaseRepository {
	return &mockDatabaseRepository{rows: make(map[int64]*storedDatabase)}
}

func (m *mockDatabaseRepository) Create(ctx context.Context, db *models.Database, encryptedInfo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	db.ID = m.nextID
	db.CreatedAt = time.Now()
	db.UpdatedAt = db.CreatedAt
	cp := *db
	cp.ConnectionInfo = ""
	m.rows[db.ID] = &storedDatabase{db: cp, sealed: encryptedInfo}
	return nil
}

func (m *mockDatabaseRepository) Get(ctx context.Context, id int64) (*models.Database, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, "", apperrors.ErrDatabaseNotFound
	}
	cp := row.db
	return &cp, row.sealed, nil
}

func (m *mockDatabaseRepository) List(ctx context.Context) ([]*models.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Database, 0, len(m.rows))
	for _, row := range m.rows {
		cp := row.db
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockDatabaseRepository) Update(ctx context.Context, db *models.Database, encryptedInfo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[db.ID]
	if !ok {
		return apperrors.ErrDatabaseNotFound
	}
	row.db.EngName = db.EngName
	row.db.KorName = db.KorName
	row.db.Description = db.Description
	if encryptedInfo != "" {
		row.sealed = encryptedInfo
	}
	return nil
}

func (m *mockDatabaseRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrDatabaseNotFound
	}
	delete(m.rows, id)
	return nil
}

// mockCatalogRepository is an in-memory catalog with the same
// create-if-absent upsert rule as the Postgres repository.
type mockCatalogRepository struct {
	mu      sync.Mutex
	nextID  int64
	tables  []*models.Table
	columns []*models.Column

	upsertErr error
	upserts   int
}

func newMockCatalogRepository() *mockCatalogRepository {
	return &mockCatalogRepository{}
}

func (m *mockCatalogRepository) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockCatalogRepository) upsertTable(databaseID int64, in models.TableInput) *models.Table {
	for _, t := range m.tables {
		if t.DatabaseID == databaseID && t.SchemaName == in.SchemaName && t.Name == in.Name {
			return t
		}
	}
	t := &models.Table{
		ID:          m.id(),
		DatabaseID:  databaseID,
		SchemaName:  in.SchemaName,
		Name:        in.Name,
		Description: in.Description,
	}
	m.tables = append(m.tables, t)
	return t
}

func (m *mockCatalogRepository) upsertColumn(tableID int64, in models.ColumnInput) *models.Column {
	for _, c := range m.columns {
		if c.TableID == tableID && c.Name == in.Name {
			description := c.Description
			refreshed := columnFromInput(c.ID, tableID, in)
			refreshed.Description = description
			if in.ColumnSeq < 0 {
				refreshed.ColumnSeq = c.ColumnSeq
			}
			*c = *refreshed
			return c
		}
	}
	c := columnFromInput(m.id(), tableID, in)
	m.columns = append(m.columns, c)
	return c
}

func columnFromInput(id, tableID int64, in models.ColumnInput) *models.Column {
	return &models.Column{
		ID:               id,
		TableID:          tableID,
		Name:             in.Name,
		Description:      in.Description,
		DataType:         in.DataType,
		DefaultValue:     in.DefaultValue,
		ColumnSeq:        in.ColumnSeq,
		IsNullable:       in.IsNullable,
		IsUnique:         in.IsUnique,
		IsPrimaryKey:     in.IsPrimaryKey,
		IsForeignKey:     in.IsForeignKey,
		ForeignKeyTable:  in.ForeignKeyTable,
		ForeignKeyColumn: in.ForeignKeyColumn,
	}
}

func (m *mockCatalogRepository) UpsertTables(ctx context.Context, databaseID int64, tables []models.TableInput) ([]*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Table, len(tables))
	for i, in := range tables {
		out[i] = m.upsertTable(databaseID, in)
	}
	return out, nil
}

func (m *mockCatalogRepository) UpsertColumns(ctx context.Context, tableID int64, columns []models.ColumnInput) ([]*models.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Column, len(columns))
	for i, in := range columns {
		out[i] = m.upsertColumn(tableID, in)
	}
	return out, nil
}

func (m *mockCatalogRepository) UpsertTableWithColumns(ctx context.Context, databaseID int64, table models.TableInput, columns []models.ColumnInput) (*models.Table, []*models.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return nil, nil, m.upsertErr
	}
	t := m.upsertTable(databaseID, table)
	cols := make([]*models.Column, len(columns))
	for i, in := range columns {
		cols[i] = m.upsertColumn(t.ID, in)
	}
	return t, cols, nil
}

func (m *mockCatalogRepository) ListTables(ctx context.Context, databaseID int64) ([]*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Table
	for _, t := range m.tables {
		if t.DatabaseID == databaseID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SchemaName != out[j].SchemaName {
			return out[i].SchemaName < out[j].SchemaName
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *mockCatalogRepository) ListTablesByIDs(ctx context.Context, databaseID int64, ids []int64) ([]*models.Table, error) {
	all, _ := m.ListTables(ctx, databaseID)
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.Table
	for _, t := range all {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockCatalogRepository) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperrors.ErrTableNotFound
}

func (m *mockCatalogRepository) UpdateTable(ctx context.Context, table *models.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.ID == table.ID {
			t.SchemaName = table.SchemaName
			t.Name = table.Name
			t.Description = table.Description
			return nil
		}
	}
	return apperrors.ErrTableNotFound
}

func (m *mockCatalogRepository) DeleteTable(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tables {
		if t.ID == id {
			m.tables = append(m.tables[:i], m.tables[i+1:]...)
			kept := m.columns[:0]
			for _, c := range m.columns {
				if c.TableID != id {
					kept = append(kept, c)
				}
			}
			m.columns = kept
			return nil
		}
	}
	return apperrors.ErrTableNotFound
}

func (m *mockCatalogRepository) ListColumns(ctx context.Context, tableID int64) ([]*models.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Column{}
	for _, c := range m.columns {
		if c.TableID == tableID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ColumnSeq != out[j].ColumnSeq {
			return out[i].ColumnSeq < out[j].ColumnSeq
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockCatalogRepository) ListColumnsWithTable(ctx context.Context, databaseID int64, tableIDs []int64) ([]models.ColumnWithTable, error) {
	tables, _ := m.ListTables(ctx, databaseID)
	want := make(map[int64]bool, len(tableIDs))
	for _, id := range tableIDs {
		want[id] = true
	}

	var out []models.ColumnWithTable
	for _, t := range tables {
		if tableIDs != nil && !want[t.ID] {
			continue
		}
		cols, _ := m.ListColumns(ctx, t.ID)
		for _, c := range cols {
			out = append(out, models.ColumnWithTable{
				Column:           *c,
				SchemaName:       t.SchemaName,
				TableName:        t.Name,
				TableDescription: t.Description,
			})
		}
	}
	return out, nil
}

func (m *mockCatalogRepository) GetColumn(ctx context.Context, id int64) (*models.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.columns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrColumnNotFound
}

func (m *mockCatalogRepository) UpdateColumn(ctx context.Context, column *models.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var target *models.Column
	for _, c := range m.columns {
		if c.ID == column.ID {
			target = c
		}
	}
	if target == nil {
		return apperrors.ErrColumnNotFound
	}
	for _, c := range m.columns {
		if c.ID != column.ID && c.TableID == target.TableID &&
			(c.Name == column.Name || (column.ColumnSeq >= 0 && c.ColumnSeq == column.ColumnSeq)) {
			return apperrors.ErrConflict
		}
	}
	column.TableID = target.TableID
	*target = *column
	return nil
}

func (m *mockCatalogRepository) DeleteColumn(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.columns {
		if c.ID == id {
			m.columns = append(m.columns[:i], m.columns[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrColumnNotFound
}

// mockSessionRepository stores interaction log entries. It also serves as
// the RecordingClient writer so generated sessions resolve in the executor.
type mockSessionRepository struct {
	mu      sync.Mutex
	entries map[string]*models.LLMLog
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{entries: make(map[string]*models.LLMLog)}
}

func (m *mockSessionRepository) Create(ctx context.Context, entry *models.LLMLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; ok {
		return apperrors.ErrConflict
	}
	cp := *entry
	cp.CreatedAt = time.Now()
	m.entries[entry.ID] = &cp
	return nil
}

func (m *mockSessionRepository) GetByID(ctx context.Context, id string) (*models.LLMLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockSessionRepository) put(id, question, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = &models.LLMLog{
		ID:              id,
		Question:        question,
		ResponseContent: content,
		Agent:           models.AgentQueryGenerator,
	}
}

// mockExecutionLogRepository records execution log entries in order.
type mockExecutionLogRepository struct {
	mu      sync.Mutex
	entries []*models.QueryExecutionLog
	err     error
}

func (m *mockExecutionLogRepository) Create(ctx context.Context, entry *models.QueryExecutionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockExecutionLogRepository) ListByDatabase(ctx context.Context, databaseID int64, limit int) ([]*models.QueryExecutionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.QueryExecutionLog
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		if e.DatabaseID != nil && *e.DatabaseID == databaseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockExecutionLogRepository) all() []*models.QueryExecutionLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.QueryExecutionLog(nil), m.entries...)
}

// mockConnection is a scripted datasource.Connection.
type mockConnection struct {
	testErr    error
	schemas    []string
	facts      []datasource.ColumnFact
	result     *datasource.QueryResult
	executeErr error

	introspected [][]string
	executed     []string
	closed       bool
}

func (c *mockConnection) TestConnection(ctx context.Context) error { return c.testErr }

func (c *mockConnection) Close() error {
	c.closed = true
	return nil
}

func (c *mockConnection) ListSchemas(ctx context.Context) ([]string, error) {
	return c.schemas, nil
}

func (c *mockConnection) IntrospectColumns(ctx context.Context, schemas []string) ([]datasource.ColumnFact, error) {
	c.introspected = append(c.introspected, schemas)
	if len(schemas) == 0 {
		return c.facts, nil
	}
	want := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		want[s] = true
	}
	var out []datasource.ColumnFact
	for _, f := range c.facts {
		if want[f.SchemaName] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (c *mockConnection) Execute(ctx context.Context, query string) (*datasource.QueryResult, error) {
	c.executed = append(c.executed, query)
	if c.executeErr != nil {
		return nil, c.executeErr
	}
	return c.result, nil
}

// mockAdapterFactory hands out one connection per Open call.
type mockAdapterFactory struct {
	OpenFunc     func(ctx context.Context, engine, descriptor string) (datasource.Connection, error)
	ValidateFunc func(engine, descriptor string) error

	opened []string
}

func (f *mockAdapterFactory) Open(ctx context.Context, engine, descriptor string) (datasource.Connection, error) {
	f.opened = append(f.opened, descriptor)
	if f.OpenFunc == nil {
		return &mockConnection{}, nil
	}
	return f.OpenFunc(ctx, engine, descriptor)
}

func (f *mockAdapterFactory) Probe(ctx context.Context, engine, descriptor string) error {
	conn, err := f.Open(ctx, engine, descriptor)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.TestConnection(ctx)
}

func (f *mockAdapterFactory) Validate(engine, descriptor string) error {
	if f.ValidateFunc == nil {
		return nil
	}
	return f.ValidateFunc(engine, descriptor)
}

func (f *mockAdapterFactory) ListTypes() []datasource.AdapterInfo {
	return nil
}

// staticConnection returns a factory whose every Open yields conn.
func staticConnection(conn datasource.Connection) *mockAdapterFactory {
	return &mockAdapterFactory{
		OpenFunc: func(ctx context.Context, engine, descriptor string) (datasource.Connection, error) {
			return conn, nil
		},
	}
}

var (
	_ repositories.DatabaseRepository       = (*mockDatabaseRepository)(nil)
	_ repositories.CatalogRepository        = (*mockCatalogRepository)(nil)
	_ repositories.InteractionLogRepository = (*mockSessionRepository)(nil)
	_ repositories.ExecutionLogRepository   = (*mockExecutionLogRepository)(nil)
	_ datasource.Connection                 = (*mockConnection)(nil)
	_ datasource.AdapterFactory             = (*mockAdapterFactory)(nil)
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
