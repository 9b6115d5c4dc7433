package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/courseqa/courseqa-backend/internal/api"
	chatapi "github.com/courseqa/courseqa-backend/internal/api/chat"
	corpusapi "github.com/courseqa/courseqa-backend/internal/api/corpus"
	"github.com/courseqa/courseqa-backend/internal/config"
	"github.com/courseqa/courseqa-backend/internal/extract"
	"github.com/courseqa/courseqa-backend/internal/integration/openai"
	"github.com/courseqa/courseqa-backend/internal/integration/storage"
	"github.com/courseqa/courseqa-backend/internal/pkg/validator"
	"github.com/courseqa/courseqa-backend/internal/repository"
	"github.com/courseqa/courseqa-backend/internal/usecase/chat"
	"github.com/courseqa/courseqa-backend/internal/usecase/ingest"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	fileRepo := repository.NewFilePostgres(db)
	chunkRepo := repository.NewChunkPostgres(db)
	queryLogRepo := repository.NewQueryLogPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var embedder ingest.Embedder
	var provider chat.ModelProvider
	var objectStore ingest.ObjectStorage

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		mockModel := openai.NewMockClient(cfg.OpenAICfg.EmbedDim, cfg.OpenAICfg.EmbedBatchSize, logger)
		embedder = mockModel
		provider = mockModel
		objectStore = storage.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		model := openai.NewClient(cfg.OpenAICfg, logger)
		embedder = model
		provider = model
		objectStore = storage.NewConnector(cfg.StorageCfg, logger)
	}

	// Initialize validators and extractors
	fileValidator := validator.NewFileValidator(cfg.IngestCfg)
	extractors := extract.NewRegistry()
	logger.Info("Validators and extractors initialized")

	// Initialize use cases
	ingestUC := ingest.NewUsecase(
		fileRepo,
		chunkRepo,
		extractors,
		embedder,
		objectStore,
		cfg.IngestCfg,
		logger,
	)

	chatUC := chat.NewUsecase(
		chunkRepo,
		queryLogRepo,
		provider,
		cfg.SystemPrompt,
		cfg.ChatCfg,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	corpusHandler := corpusapi.NewHandler(ingestUC, cfg.IngestCfg, cfg.ChatCfg.FilesCacheTTL, fileValidator)
	chatHandler := chatapi.NewHandler(chatUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(corpusHandler, chatHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// Ingestor bundles everything the batch ingestion CLI needs.
type Ingestor struct {
	Usecase *ingest.Usecase
	Config  *config.Config
	Logger  *zap.Logger

	db *pgxpool.Pool
}

// BuildIngestor wires the ingestion pipeline without the HTTP surface.
func BuildIngestor() (*Ingestor, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	var embedder ingest.Embedder
	var objectStore ingest.ObjectStorage

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = openai.NewMockClient(cfg.OpenAICfg.EmbedDim, cfg.OpenAICfg.EmbedBatchSize, logger)
		objectStore = storage.NewMockConnector(logger)
	} else {
		embedder = openai.NewClient(cfg.OpenAICfg, logger)
		objectStore = storage.NewConnector(cfg.StorageCfg, logger)
	}

	ingestUC := ingest.NewUsecase(
		repository.NewFilePostgres(db),
		repository.NewChunkPostgres(db),
		extract.NewRegistry(),
		embedder,
		objectStore,
		cfg.IngestCfg,
		logger,
	)

	return &Ingestor{
		Usecase: ingestUC,
		Config:  cfg,
		Logger:  logger,
		db:      db,
	}, nil
}

// Close releases the ingestor's database resources.
func (i *Ingestor) Close() {
	i.db.Close()
}
