package mysql

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
)

// SystemSchemas are never introspected.
var SystemSchemas = []string{"mysql", "information_schema", "performance_schema", "sys"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func schemasQuery() (string, []any, error) {
	return psql.Select("DISTINCT table_schema").
		From("information_schema.tables").
		Where(sq.NotEq{"table_schema": SystemSchemas}).
		OrderBy("table_schema").
		ToSql()
}

// introspectionQuery selects one row per column, joined with its table
// comment and, when present, the foreign key it references.
func introspectionQuery(schemas []string) (string, []any, error) {
	q := psql.Select(
		"c.table_schema AS schema_name",
		"c.table_name AS table_name",
		"t.table_comment AS table_description",
		"c.column_name AS column_name",
		"c.column_comment AS column_description",
		"c.column_type AS data_type",
		"c.column_default AS default_value",
		"c.ordinal_position AS ordinal_position",
		"CASE WHEN c.is_nullable = 'YES' THEN 1 ELSE 0 END AS is_nullable",
		"CASE WHEN c.column_key = 'PRI' THEN 1 ELSE 0 END AS is_primary_key",
		"CASE WHEN c.column_key = 'UNI' THEN 1 ELSE 0 END AS is_unique",
		"CASE WHEN k.referenced_table_name IS NOT NULL THEN 1 ELSE 0 END AS is_foreign_key",
		"k.referenced_table_name AS foreign_key_table",
		"k.referenced_column_name AS foreign_key_column",
	).
		From("information_schema.columns c").
		LeftJoin("information_schema.key_column_usage k ON c.table_schema = k.table_schema" +
			" AND c.table_name = k.table_name AND c.column_name = k.column_name" +
			" AND k.referenced_table_name IS NOT NULL").
		LeftJoin("information_schema.tables t ON c.table_schema = t.table_schema AND c.table_name = t.table_name").
		Where(sq.NotEq{"c.table_schema": SystemSchemas})

	if len(schemas) > 0 {
		q = q.Where(sq.Eq{"c.table_schema": schemas})
	}

	return q.OrderBy("c.table_schema", "c.table_name", "c.ordinal_position").ToSql()
}

// ListSchemas returns the user schemas on the server.
func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	query, args, err := schemasQuery()
	if err != nil {
		return nil, fmt.Errorf("build schemas query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		schemas = append(schemas, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemas: %w", err)
	}
	return schemas, nil
}

// IntrospectColumns returns column facts for the given schemas, or for every
// user schema when schemas is empty.
func (a *Adapter) IntrospectColumns(ctx context.Context, schemas []string) ([]datasource.ColumnFact, error) {
	query, args, err := introspectionQuery(schemas)
	if err != nil {
		return nil, fmt.Errorf("build introspection query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	defer rows.Close()

	var facts []datasource.ColumnFact
	for rows.Next() {
		f, err := scanColumnFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	a.logger.Debug("Introspected columns", zap.Int("columns", len(facts)), zap.Strings("schemas", schemas))
	return facts, nil
}

func scanColumnFact(rows *sql.Rows) (datasource.ColumnFact, error) {
	var (
		f                  datasource.ColumnFact
		tableDesc, colDesc sql.NullString
		defaultValue       sql.NullString
		fkTable, fkColumn  sql.NullString
	)
	err := rows.Scan(
		&f.SchemaName,
		&f.TableName,
		&tableDesc,
		&f.ColumnName,
		&colDesc,
		&f.DataType,
		&defaultValue,
		&f.OrdinalPosition,
		&f.IsNullable,
		&f.IsPrimaryKey,
		&f.IsUnique,
		&f.IsForeignKey,
		&fkTable,
		&fkColumn,
	)
	if err != nil {
		return f, fmt.Errorf("scan column: %w", err)
	}

	f.TableDescription = tableDesc.String
	f.ColumnDescription = colDesc.String
	f.DefaultValue = nullableString(defaultValue)
	f.ForeignKeyTable = nullableString(fkTable)
	f.ForeignKeyColumn = nullableString(fkColumn)
	return f, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
