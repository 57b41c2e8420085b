package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/database"
	"github.com/ydh4481/llm-ddp/pkg/models"
)

// CatalogRepository stores the tables and columns cataloged for each database.
//
// Upserts are create-if-absent: a row whose natural key already exists is
// returned unchanged, so the first description written wins.
type CatalogRepository interface {
	UpsertTables(ctx context.Context, databaseID int64, tables []models.TableInput) ([]*models.Table, error)
	UpsertColumns(ctx context.Context, tableID int64, columns []models.ColumnInput) ([]*models.Column, error)

	// UpsertTableWithColumns commits one table and its columns atomically.
	UpsertTableWithColumns(ctx context.Context, databaseID int64, table models.TableInput, columns []models.ColumnInput) (*models.Table, []*models.Column, error)

	ListTables(ctx context.Context, databaseID int64) ([]*models.Table, error)
	ListTablesByIDs(ctx context.Context, databaseID int64, ids []int64) ([]*models.Table, error)
	GetTable(ctx context.Context, id int64) (*models.Table, error)
	UpdateTable(ctx context.Context, table *models.Table) error
	DeleteTable(ctx context.Context, id int64) error

	ListColumns(ctx context.Context, tableID int64) ([]*models.Column, error)
	// ListColumnsWithTable returns columns joined with their tables, ordered by
	// schema, table name and column_seq. A nil tableIDs selects every table.
	ListColumnsWithTable(ctx context.Context, databaseID int64, tableIDs []int64) ([]models.ColumnWithTable, error)
	GetColumn(ctx context.Context, id int64) (*models.Column, error)
	UpdateColumn(ctx context.Context, column *models.Column) error
	DeleteColumn(ctx context.Context, id int64) error
}

type catalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *database.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

const (
	tableColumns = `id, database_id, schema_name, name, description, created_at, updated_at`

	columnColumns = `id, table_id, name, description, data_type, default_value, column_seq,
		is_nullable, is_unique, is_primary_key, is_foreign_key,
		foreign_key_table, foreign_key_column, created_at, updated_at`

	upsertTableSQL = `
		INSERT INTO ddp_tables (database_id, schema_name, name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT ddp_tables_natural_key
		DO UPDATE SET name = ddp_tables.name
		RETURNING ` + tableColumns

	upsertColumnSQL = `
		INSERT INTO ddp_columns (
			table_id, name, description, data_type, default_value, column_seq,
			is_nullable, is_unique, is_primary_key, is_foreign_key,
			foreign_key_table, foreign_key_column
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT ON CONSTRAINT ddp_columns_natural_key
		DO UPDATE SET
			data_type = EXCLUDED.data_type,
			default_value = EXCLUDED.default_value,
			column_seq = CASE WHEN EXCLUDED.column_seq >= 0 THEN EXCLUDED.column_seq ELSE ddp_columns.column_seq END,
			is_nullable = EXCLUDED.is_nullable,
			is_unique = EXCLUDED.is_unique,
			is_primary_key = EXCLUDED.is_primary_key,
			is_foreign_key = EXCLUDED.is_foreign_key,
			foreign_key_table = EXCLUDED.foreign_key_table,
			foreign_key_column = EXCLUDED.foreign_key_column,
			updated_at = now()
		RETURNING ` + columnColumns

	// Positions about to be written are released first so a shifted column
	// order cannot collide with the stored one. Stale columns holding such a
	// position become unpositioned.
	releaseColumnSeqSQL = `
		UPDATE ddp_columns SET column_seq = -1, updated_at = now()
		WHERE table_id = $1 AND column_seq >= 0
		  AND (name = ANY($2) OR column_seq = ANY($3))`
)

func (r *catalogRepository) UpsertTables(ctx context.Context, databaseID int64, tables []models.TableInput) ([]*models.Table, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	result := make([]*models.Table, 0, len(tables))
	for _, in := range tables {
		t, err := upsertTable(ctx, tx, databaseID, in)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (r *catalogRepository) UpsertColumns(ctx context.Context, tableID int64, columns []models.ColumnInput) ([]*models.Column, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	result, err := upsertColumns(ctx, tx, tableID, columns)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (r *catalogRepository) UpsertTableWithColumns(ctx context.Context, databaseID int64, table models.TableInput, columns []models.ColumnInput) (*models.Table, []*models.Column, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	t, err := upsertTable(ctx, tx, databaseID, table)
	if err != nil {
		return nil, nil, err
	}

	cols, err := upsertColumns(ctx, tx, t.ID, columns)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return t, cols, nil
}

func upsertTable(ctx context.Context, q querier, databaseID int64, in models.TableInput) (*models.Table, error) {
	t, err := scanTable(q.QueryRow(ctx, upsertTableSQL, databaseID, in.SchemaName, in.Name, in.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert table %s.%s: %w", in.SchemaName, in.Name, mapWriteError(err, apperrors.ErrDatabaseNotFound))
	}
	return t, nil
}

// upsertColumns keeps the stored description of an existing column and
// refreshes everything else from the input.
func upsertColumns(ctx context.Context, q querier, tableID int64, columns []models.ColumnInput) ([]*models.Column, error) {
	var names []string
	var seqs []int32
	for _, in := range columns {
		if in.ColumnSeq >= 0 {
			names = append(names, in.Name)
			seqs = append(seqs, int32(in.ColumnSeq))
		}
	}
	if len(names) > 0 {
		if _, err := q.Exec(ctx, releaseColumnSeqSQL, tableID, names, seqs); err != nil {
			return nil, fmt.Errorf("failed to release column positions: %w", err)
		}
	}

	result := make([]*models.Column, 0, len(columns))
	for _, in := range columns {
		c, err := scanColumn(q.QueryRow(ctx, upsertColumnSQL,
			tableID,
			in.Name,
			in.Description,
			in.DataType,
			in.DefaultValue,
			in.ColumnSeq,
			in.IsNullable,
			in.IsUnique,
			in.IsPrimaryKey,
			in.IsForeignKey,
			in.ForeignKeyTable,
			in.ForeignKeyColumn,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert column %s: %w", in.Name, mapWriteError(err, apperrors.ErrTableNotFound))
		}
		result = append(result, c)
	}
	return result, nil
}

// mapWriteError translates constraint violations. A foreign key violation
// means the parent row is gone.
func mapWriteError(err error, parentMissing error) error {
	if isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return parentMissing
	}
	return err
}

func (r *catalogRepository) ListTables(ctx context.Context, databaseID int64) ([]*models.Table, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tableColumns+` FROM ddp_tables WHERE database_id = $1 ORDER BY schema_name, name`,
		databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return collectTables(rows)
}

func (r *catalogRepository) ListTablesByIDs(ctx context.Context, databaseID int64, ids []int64) ([]*models.Table, error) {
	if len(ids) == 0 {
		return []*models.Table{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+tableColumns+` FROM ddp_tables WHERE database_id = $1 AND id = ANY($2) ORDER BY schema_name, name`,
		databaseID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return collectTables(rows)
}

func collectTables(rows pgx.Rows) ([]*models.Table, error) {
	defer rows.Close()

	tables := make([]*models.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

func (r *catalogRepository) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	t, err := scanTable(r.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM ddp_tables WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return t, nil
}

func (r *catalogRepository) UpdateTable(ctx context.Context, t *models.Table) error {
	query := `
		UPDATE ddp_tables
		SET schema_name = $2, name = $3, description = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + tableColumns

	updated, err := scanTable(r.db.QueryRow(ctx, query, t.ID, t.SchemaName, t.Name, t.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrTableNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update table: %w", err)
	}
	*t = *updated
	return nil
}

func (r *catalogRepository) DeleteTable(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ddp_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTableNotFound
	}
	return nil
}

func (r *catalogRepository) ListColumns(ctx context.Context, tableID int64) ([]*models.Column, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+columnColumns+` FROM ddp_columns WHERE table_id = $1 ORDER BY column_seq, id`,
		tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	columns := make([]*models.Column, 0)
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return columns, nil
}

func (r *catalogRepository) ListColumnsWithTable(ctx context.Context, databaseID int64, tableIDs []int64) ([]models.ColumnWithTable, error) {
	query := `
		SELECT c.id, c.table_id, c.name, c.description, c.data_type, c.default_value, c.column_seq,
		       c.is_nullable, c.is_unique, c.is_primary_key, c.is_foreign_key,
		       c.foreign_key_table, c.foreign_key_column, c.created_at, c.updated_at,
		       t.schema_name, t.name, t.description
		FROM ddp_columns c
		JOIN ddp_tables t ON t.id = c.table_id
		WHERE t.database_id = $1
		  AND ($2::bigint[] IS NULL OR t.id = ANY($2))
		ORDER BY t.schema_name, t.name, c.column_seq, c.id`

	rows, err := r.db.Query(ctx, query, databaseID, tableIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns with tables: %w", err)
	}
	defer rows.Close()

	result := make([]models.ColumnWithTable, 0)
	for rows.Next() {
		var cw models.ColumnWithTable
		c := &cw.Column
		err := rows.Scan(
			&c.ID, &c.TableID, &c.Name, &c.Description, &c.DataType, &c.DefaultValue, &c.ColumnSeq,
			&c.IsNullable, &c.IsUnique, &c.IsPrimaryKey, &c.IsForeignKey,
			&c.ForeignKeyTable, &c.ForeignKeyColumn, &c.CreatedAt, &c.UpdatedAt,
			&cw.SchemaName, &cw.TableName, &cw.TableDescription,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		result = append(result, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return result, nil
}

func (r *catalogRepository) GetColumn(ctx context.Context, id int64) (*models.Column, error) {
	c, err := scanColumn(r.db.QueryRow(ctx, `SELECT `+columnColumns+` FROM ddp_columns WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to get column: %w", err)
	}
	return c, nil
}

func (r *catalogRepository) UpdateColumn(ctx context.Context, c *models.Column) error {
	query := `
		UPDATE ddp_columns
		SET name = $2, description = $3, data_type = $4, default_value = $5, column_seq = $6,
		    is_nullable = $7, is_unique = $8, is_primary_key = $9, is_foreign_key = $10,
		    foreign_key_table = $11, foreign_key_column = $12, updated_at = now()
		WHERE id = $1
		RETURNING ` + columnColumns

	updated, err := scanColumn(r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Description, c.DataType, c.DefaultValue, c.ColumnSeq,
		c.IsNullable, c.IsUnique, c.IsPrimaryKey, c.IsForeignKey,
		c.ForeignKeyTable, c.ForeignKeyColumn,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrColumnNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to update column: %w", err)
	}
	*c = *updated
	return nil
}

func (r *catalogRepository) DeleteColumn(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ddp_columns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrColumnNotFound
	}
	return nil
}

func scanTable(row pgx.Row) (*models.Table, error) {
	var t models.Table
	err := row.Scan(&t.ID, &t.DatabaseID, &t.SchemaName, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanColumn(row pgx.Row) (*models.Column, error) {
	var c models.Column
	err := row.Scan(
		&c.ID, &c.TableID, &c.Name, &c.Description, &c.DataType, &c.DefaultValue, &c.ColumnSeq,
		&c.IsNullable, &c.IsUnique, &c.IsPrimaryKey, &c.IsForeignKey,
		&c.ForeignKeyTable, &c.ForeignKeyColumn, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ CatalogRepository = (*catalogRepository)(nil)
