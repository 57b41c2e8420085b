package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	_ "github.com/ydh4481/llm-ddp/pkg/adapters/datasource/mysql"
	"github.com/ydh4481/llm-ddp/pkg/audit"
	"github.com/ydh4481/llm-ddp/pkg/config"
	"github.com/ydh4481/llm-ddp/pkg/crypto"
	"github.com/ydh4481/llm-ddp/pkg/database"
	"github.com/ydh4481/llm-ddp/pkg/handlers"
	"github.com/ydh4481/llm-ddp/pkg/llm"
	"github.com/ydh4481/llm-ddp/pkg/logging"
	"github.com/ydh4481/llm-ddp/pkg/mcp"
	"github.com/ydh4481/llm-ddp/pkg/mcp/tools"
	"github.com/ydh4481/llm-ddp/pkg/metrics"
	"github.com/ydh4481/llm-ddp/pkg/middleware"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/repositories"
	"github.com/ydh4481/llm-ddp/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *printConfig {
		if err := cfg.WriteExample(os.Stdout); err != nil {
			log.Fatalf("Failed to print config: %v", err)
		}
		return
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsLocal() {
		zapCfg := zap.NewDevelopmentConfig()
		return zapCfg.Build()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("catalog", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("timezone", cfg.Target.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Migrations run on a database/sql handle; the services use the pgx pool.
	sqlDB, err := database.OpenSQL(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, database.ConfigFrom(&cfg.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to catalog: %w", err)
	}
	defer db.Close()

	cipher, err := crypto.NewDescriptorCipher(cfg.CredentialsKey)
	if err != nil {
		return fmt.Errorf("failed to create descriptor cipher: %w", err)
	}

	location, err := time.LoadLocation(cfg.Target.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	// Repositories
	databaseRepo := repositories.NewDatabaseRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	interactionRepo := repositories.NewInteractionLogRepository(db)
	executionRepo := repositories.NewExecutionLogRepository(db)

	// Target databases and model clients
	adapters := datasource.NewAdapterFactory(datasource.Options{
		ConnectTimeout: cfg.Target.ConnectTimeout(),
		QueryTimeout:   cfg.Target.QueryTimeout(),
		Logger:         logger,
	})
	clients := llm.NewClientFactory(&cfg.LLM, interactionRepo, logger)

	selectorClient, err := clients.ForAgent(models.AgentTableSelector)
	if err != nil {
		return err
	}
	generatorClient, err := clients.ForAgent(models.AgentQueryGenerator)
	if err != nil {
		return err
	}
	summarizerClient, err := clients.ForAgent(models.AgentResultSummarizer)
	if err != nil {
		return err
	}

	auditor := audit.NewSecurityAuditor(logger)

	// Services
	databaseService := services.NewDatabaseService(databaseRepo, cipher, adapters, logger)
	catalogService := services.NewCatalogService(catalogRepo, databaseService, adapters, logger)
	metadataService := services.NewMetadataService(databaseRepo, catalogRepo,
		services.NewTableSelector(selectorClient, logger), logger)
	generationService := services.NewSQLGenerationService(metadataService,
		services.NewQueryGenerator(generatorClient, location, logger), auditor, logger)
	executionService := services.NewQueryExecutionService(databaseService, interactionRepo, executionRepo,
		services.NewResultSummarizer(summarizerClient, logger), auditor, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewDatabasesHandler(databaseService, executionService, logger).RegisterRoutes(mux)
	handlers.NewCatalogHandler(catalogService, metadataService, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(generationService, executionService, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("llm-ddp", cfg.Version, logger)
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, db)
		tools.RegisterQueryTools(mcpServer.MCP(), &tools.QueryToolDeps{
			Databases:  databaseService,
			Generation: generationService,
			Execution:  executionService,
			Logger:     logger.Named("mcp-tools"),
		})
		mux.Handle("/mcp", mcpServer.Handler())
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting llm-ddp", zap.String("addr", srv.Addr), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
