// Package database owns the catalog store: the pgx pool used by the
// repositories and the schema migrations applied at startup.
package database

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ydh4481/llm-ddp/pkg/config"
)

// DB is the catalog pool shared by every repository.
type DB struct {
	*pgxpool.Pool
}

// Pool defaults applied when Config leaves a field at zero.
const (
	defaultMaxConns        int32 = 25
	defaultMaxConnLifetime       = time.Hour
	defaultMaxConnIdleTime       = 30 * time.Minute

	applicationName = "llm-ddp"
)

// Config holds catalog connection pool settings.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ConfigFrom maps the application database settings to pool settings.
func ConfigFrom(cfg *config.DatabaseConfig) *Config {
	return &Config{
		URL:            cfg.ConnectionString(),
		MaxConnections: cfg.MaxConnections,
	}
}

func (c *Config) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog URL: %w", err)
	}

	pc.MaxConns = cmp.Or(c.MaxConnections, defaultMaxConns)
	pc.MaxConnLifetime = cmp.Or(c.MaxConnLifetime, defaultMaxConnLifetime)
	pc.MaxConnIdleTime = cmp.Or(c.MaxConnIdleTime, defaultMaxConnIdleTime)
	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; !ok {
		pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return pc, nil
}

// NewConnection opens the catalog pool and pings it once. The pool is closed
// again when the ping fails.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach catalog: %w", err)
	}

	return &DB{Pool: pool}, nil
}
