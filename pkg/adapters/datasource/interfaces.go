// Package datasource defines the engine-neutral view of target databases:
// connection probing, schema introspection and query execution.
package datasource

import "context"

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// SchemaIntrospector reads column-level metadata from the engine catalog.
type SchemaIntrospector interface {
	// ListSchemas returns user schemas, excluding engine-internal ones.
	ListSchemas(ctx context.Context) ([]string, error)

	// IntrospectColumns returns one fact per column ordered by schema, table
	// and ordinal position. An empty schemas list means every user schema.
	IntrospectColumns(ctx context.Context, schemas []string) ([]ColumnFact, error)
}

// QueryExecutor runs a single statement and fetches every row.
type QueryExecutor interface {
	Execute(ctx context.Context, query string) (*QueryResult, error)
}

// Connection is a scoped handle to one target database. It is never shared
// across requests.
type Connection interface {
	ConnectionTester
	SchemaIntrospector
	QueryExecutor
}

// ColumnFact is one row of the introspection query.
type ColumnFact struct {
	SchemaName        string  `json:"schema_name"`
	TableName         string  `json:"table_name"`
	TableDescription  string  `json:"table_description"`
	ColumnName        string  `json:"column_name"`
	ColumnDescription string  `json:"column_description"`
	DataType          string  `json:"data_type"`
	DefaultValue      *string `json:"default_value"`
	OrdinalPosition   int     `json:"ordinal_position"`
	IsNullable        bool    `json:"is_nullable"`
	IsPrimaryKey      bool    `json:"is_primary_key"`
	IsUnique          bool    `json:"is_unique"`
	IsForeignKey      bool    `json:"is_foreign_key"`
	ForeignKeyTable   *string `json:"foreign_key_table"`
	ForeignKeyColumn  *string `json:"foreign_key_column"`
}

// TableFacts groups the column facts of one table.
type TableFacts struct {
	SchemaName       string       `json:"schema_name"`
	TableName        string       `json:"table_name"`
	TableDescription string       `json:"table_description"`
	Columns          []ColumnFact `json:"columns"`
}

// QueryResult holds the rows of an executed query. ElapsedMS covers
// execution and fetch only, not connection setup.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	ElapsedMS float64  `json:"elapsed_ms"`
}
