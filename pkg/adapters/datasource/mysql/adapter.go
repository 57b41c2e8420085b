package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/logging"
)

// Adapter is a scoped MySQL connection. It owns a single-connection *sql.DB
// and must be closed by the caller.
type Adapter struct {
	config       *Config
	db           *sql.DB
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewAdapter opens and pings a connection. On failure nothing is left open.
func NewAdapter(ctx context.Context, cfg *Config, opts datasource.Options) (*Adapter, error) {
	connector, err := mysql.NewConnector(cfg.driverConfig(opts.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidConnectionDescriptor, err.Error())
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConnectionFailed, logging.SanitizeError(err))
	}

	return newAdapter(cfg, db, opts), nil
}

func newAdapter(cfg *Config, db *sql.DB, opts datasource.Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		config:       cfg,
		db:           db,
		queryTimeout: opts.QueryTimeout,
		logger: logger.Named("mysql").With(
			zap.String("host", cfg.Host),
			zap.String("database", cfg.Database)),
	}
}

// Open parses a descriptor and connects.
func Open(ctx context.Context, descriptor string, opts datasource.Options) (*Adapter, error) {
	cfg, err := ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	return NewAdapter(ctx, cfg, opts)
}

// TestConnection pings the server and runs SELECT 1.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping failed: %s", apperrors.ErrConnectionFailed, logging.SanitizeError(err))
	}

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("%w: test query failed: %s", apperrors.ErrConnectionFailed, logging.SanitizeError(err))
	}
	if result != 1 {
		return fmt.Errorf("%w: unexpected test query result %d", apperrors.ErrConnectionFailed, result)
	}
	return nil
}

// Close releases the connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

var _ datasource.Connection = (*Adapter)(nil)

// WrapDB adopts an already opened handle, for callers that manage the driver
// connection themselves.
func WrapDB(cfg *Config, db *sql.DB, opts datasource.Options) *Adapter {
	return newAdapter(cfg, db, opts)
}
