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

// DatabaseRepository defines data access for registered target databases.
// Connection info is stored as encrypted TEXT; encryption is handled by the service layer.
type DatabaseRepository interface {
	// Create inserts a database and fills in its ID and timestamps.
	Create(ctx context.Context, db *models.Database, encryptedInfo string) error

	// Get returns the database and its encrypted connection info.
	Get(ctx context.Context, id int64) (*models.Database, string, error)

	// List returns every database without connection info, newest first.
	List(ctx context.Context) ([]*models.Database, error)

	// Update overwrites the editable fields. An empty encryptedInfo keeps the stored value.
	Update(ctx context.Context, db *models.Database, encryptedInfo string) error

	Delete(ctx context.Context, id int64) error
}

type databaseRepository struct {
	db *database.DB
}

// NewDatabaseRepository creates a new database repository.
func NewDatabaseRepository(db *database.DB) DatabaseRepository {
	return &databaseRepository{db: db}
}

const databaseColumns = `id, eng_name, kor_name, description, engine, created_at, updated_at`

func (r *databaseRepository) Create(ctx context.Context, d *models.Database, encryptedInfo string) error {
	if d.Engine == "" {
		d.Engine = models.DefaultEngine
	}

	query := `
		INSERT INTO ddp_databases (eng_name, kor_name, description, connection_info, engine)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, d.EngName, d.KorName, d.Description, encryptedInfo, d.Engine).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

func (r *databaseRepository) Get(ctx context.Context, id int64) (*models.Database, string, error) {
	query := `SELECT ` + databaseColumns + `, connection_info FROM ddp_databases WHERE id = $1`

	var d models.Database
	var encryptedInfo string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.EngName, &d.KorName, &d.Description, &d.Engine, &d.CreatedAt, &d.UpdatedAt,
		&encryptedInfo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.ErrDatabaseNotFound
		}
		return nil, "", fmt.Errorf("failed to get database: %w", err)
	}
	return &d, encryptedInfo, nil
}

func (r *databaseRepository) List(ctx context.Context) ([]*models.Database, error) {
	rows, err := r.db.Query(ctx, `SELECT `+databaseColumns+` FROM ddp_databases ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	databases := make([]*models.Database, 0)
	for rows.Next() {
		var d models.Database
		if err := rows.Scan(&d.ID, &d.EngName, &d.KorName, &d.Description, &d.Engine, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan database: %w", err)
		}
		databases = append(databases, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating databases: %w", err)
	}
	return databases, nil
}

func (r *databaseRepository) Update(ctx context.Context, d *models.Database, encryptedInfo string) error {
	query := `
		UPDATE ddp_databases
		SET eng_name = $2,
		    kor_name = $3,
		    description = $4,
		    connection_info = COALESCE(NULLIF($5, ''), connection_info),
		    updated_at = now()
		WHERE id = $1
		RETURNING engine, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, d.ID, d.EngName, d.KorName, d.Description, encryptedInfo).
		Scan(&d.Engine, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrDatabaseNotFound
		}
		return fmt.Errorf("failed to update database: %w", err)
	}
	return nil
}

func (r *databaseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ddp_databases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDatabaseNotFound
	}
	return nil
}

var _ DatabaseRepository = (*databaseRepository)(nil)
