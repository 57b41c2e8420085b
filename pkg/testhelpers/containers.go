package testhelpers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql" // target database driver for fixtures
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/database"
)

const (
	// CatalogImage backs the catalog store in integration tests.
	CatalogImage = "postgres:16-alpine"
	// TargetImage is the MySQL server introspected by integration tests.
	TargetImage = "mysql:8.0"

	targetRootPassword = "test_password"
	targetDatabase     = "shop"
)

// CatalogDB is a migrated catalog store shared by all tests in a run.
type CatalogDB struct {
	Container testcontainers.Container
	DB        *database.DB
	ConnStr   string
}

var (
	sharedCatalogDB     *CatalogDB
	sharedCatalogDBOnce sync.Once
	sharedCatalogDBErr  error
)

// GetCatalogDB returns a shared PostgreSQL container with migrations applied.
// The container is created once and reused across all tests in the run.
func GetCatalogDB(t *testing.T) *CatalogDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedCatalogDBOnce.Do(func() {
		sharedCatalogDB, sharedCatalogDBErr = setupCatalogDB()
	})

	if sharedCatalogDBErr != nil {
		t.Fatalf("Failed to setup catalog database: %v", sharedCatalogDBErr)
	}

	return sharedCatalogDB
}

func setupCatalogDB() (*CatalogDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        CatalogImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "ddp_test",
			"POSTGRES_USER":     "ddp",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start catalog container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://ddp:test_password@%s:%s/ddp_test?sslmode=disable", host, port.Port())

	db, err := database.NewConnection(ctx, &database.Config{URL: connStr, MaxConnections: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	sqlDB, err := database.OpenSQL(connStr)
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &CatalogDB{Container: container, DB: db, ConnStr: connStr}, nil
}

// Reset empties every catalog table. Tests sharing the container call it
// before seeding their own rows.
func (c *CatalogDB) Reset(t *testing.T) {
	t.Helper()
	_, err := c.DB.Exec(context.Background(),
		`TRUNCATE ddp_query_execution_logs, ddp_llm_logs, ddp_columns, ddp_tables, ddp_databases RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset catalog: %v", err)
	}
}

// TargetDB is a MySQL server loaded with the shop fixture.
type TargetDB struct {
	Container  testcontainers.Container
	SQL        *sql.DB
	Descriptor string
}

var (
	sharedTargetDB     *TargetDB
	sharedTargetDBOnce sync.Once
	sharedTargetDBErr  error
)

// GetTargetDB returns a shared MySQL container seeded with ShopFixture.
func GetTargetDB(t *testing.T) *TargetDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTargetDBOnce.Do(func() {
		sharedTargetDB, sharedTargetDBErr = setupTargetDB()
	})

	if sharedTargetDBErr != nil {
		t.Fatalf("Failed to setup target database: %v", sharedTargetDBErr)
	}

	return sharedTargetDB
}

func setupTargetDB() (*TargetDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        TargetImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": targetRootPassword,
			"MYSQL_DATABASE":      targetDatabase,
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start target container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	dsn := fmt.Sprintf("root:%s@tcp(%s:%s)/%s?multiStatements=true", targetRootPassword, host, port.Port(), targetDatabase)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}

	// The port opens before the server finishes its init scripts.
	for i := 0; i < 60; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("target database never became ready: %w", err)
	}

	if _, err := db.ExecContext(ctx, ShopFixture); err != nil {
		return nil, fmt.Errorf("failed to load shop fixture: %w", err)
	}

	descriptor, err := json.Marshal(map[string]any{
		"host":     host,
		"port":     port.Int(),
		"user":     "root",
		"password": targetRootPassword,
		"database": targetDatabase,
	})
	if err != nil {
		return nil, err
	}

	return &TargetDB{Container: container, SQL: db, Descriptor: string(descriptor)}, nil
}

// ShopFixture creates the shop schema used by end-to-end tests. Orders in
// 2023 sum to 150000.
const ShopFixture = `
CREATE TABLE IF NOT EXISTS customers (
    id INT PRIMARY KEY COMMENT '고객 ID',
    name VARCHAR(100) NOT NULL COMMENT '고객명',
    city VARCHAR(50) COMMENT '도시'
) COMMENT '고객';

CREATE TABLE IF NOT EXISTS orders (
    id INT PRIMARY KEY COMMENT '주문 ID',
    customer_id INT NOT NULL COMMENT '고객 ID',
    amount INT NOT NULL DEFAULT 0 COMMENT '주문 금액',
    order_date DATE NOT NULL COMMENT '주문일자',
    CONSTRAINT fk_orders_customer FOREIGN KEY (customer_id) REFERENCES customers(id)
) COMMENT '주문';

INSERT IGNORE INTO customers (id, name, city) VALUES (1, '김철수', 'Seoul'), (2, '이영희', 'Busan');
INSERT IGNORE INTO orders (id, customer_id, amount, order_date) VALUES
    (1, 1, 50000, '2023-03-01'),
    (2, 2, 100000, '2023-07-15'),
    (3, 1, 30000, '2024-01-10');
`
