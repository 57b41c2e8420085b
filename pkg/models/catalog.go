package models

import "time"

// DefaultEngine is the only target engine the introspector understands.
const DefaultEngine = "mysql"

// Database is a registered connection target. ConnectionInfo holds the
// decrypted connection descriptor JSON and is only populated by the service layer.
type Database struct {
	ID             int64     `json:"id"`
	EngName        string    `json:"eng_name"`
	KorName        string    `json:"kor_name"`
	Description    string    `json:"description"`
	ConnectionInfo string    `json:"connection_info,omitempty"`
	Engine         string    `json:"engine"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Table is a cataloged table. (DatabaseID, SchemaName, Name) is the natural key.
type Table struct {
	ID          int64     `json:"id"`
	DatabaseID  int64     `json:"database_id"`
	SchemaName  string    `json:"schema_name"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Column is a cataloged column. (TableID, Name) is the natural key and
// ColumnSeq orders columns within a table.
type Column struct {
	ID               int64     `json:"id"`
	TableID          int64     `json:"table_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	DataType         string    `json:"data_type"`
	DefaultValue     *string   `json:"default_value,omitempty"`
	ColumnSeq        int       `json:"column_seq"`
	IsNullable       bool      `json:"is_nullable"`
	IsUnique         bool      `json:"is_unique"`
	IsPrimaryKey     bool      `json:"is_primary_key"`
	IsForeignKey     bool      `json:"is_foreign_key"`
	ForeignKeyTable  *string   `json:"foreign_key_table,omitempty"`
	ForeignKeyColumn *string   `json:"foreign_key_column,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableInput carries the fields used to create a table by natural key.
type TableInput struct {
	SchemaName  string `json:"schema_name"`
	Name        string `json:"table_name"`
	Description string `json:"table_description"`
}

// ColumnInput carries the fields used to create a column by natural key.
type ColumnInput struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	DataType         string  `json:"data_type"`
	DefaultValue     *string `json:"default_value"`
	ColumnSeq        int     `json:"column_seq"`
	IsNullable       bool    `json:"is_nullable"`
	IsUnique         bool    `json:"is_unique"`
	IsPrimaryKey     bool    `json:"is_primary_key"`
	IsForeignKey     bool    `json:"is_foreign_key"`
	ForeignKeyTable  *string `json:"foreign_key_table"`
	ForeignKeyColumn *string `json:"foreign_key_column"`
}

// TableMetadata is one table with its columns, the unit of import and of
// the grouped metadata view.
type TableMetadata struct {
	SchemaName       string        `json:"schema_name"`
	TableName        string        `json:"table_name"`
	TableDescription string        `json:"table_description"`
	Columns          []ColumnInput `json:"columns"`
}

// ColumnWithTable pairs a column with the table it belongs to for prompt rendering.
type ColumnWithTable struct {
	Column
	SchemaName       string `json:"schema_name"`
	TableName        string `json:"table_name"`
	TableDescription string `json:"table_description"`
}

// TableSummary is the compact table view offered to the table selector.
type TableSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ImportSummary reports the outcome of a catalog import.
type ImportSummary struct {
	Tables  int `json:"tables"`
	Columns int `json:"columns"`
}
