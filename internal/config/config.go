package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/courseqa/courseqa-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

const defaultSystemPrompt = "You are a helpful assistant that answers questions strictly using the provided context. " +
	"If the context doesn't include enough information, say so clearly."

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	OpenAICfg  OpenAIConfig  `envPrefix:"OPENAI_"`
	StorageCfg StorageConfig `envPrefix:"STORAGE_"`

	// Pipeline configuration
	IngestCfg IngestConfig `envPrefix:"INGEST_"`
	ChatCfg   ChatConfig   `envPrefix:"CHAT_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// System prompt loaded from SystemPromptPath (falls back to a built-in)
	SystemPrompt string

	// Environment (set from flag, not from env var)
	Environment string
}

// OpenAIConfig holds the embedding and chat model provider configuration.
// EmbedDim is the corpus-wide embedding dimension: every vector written to or
// searched against the store must have exactly this length.
type OpenAIConfig struct {
	APIKey         string               `env:"API_KEY,notEmpty"`
	BaseURL        string               `env:"BASE_URL"`
	EmbedModel     string               `env:"EMBED_MODEL" envDefault:"text-embedding-3-large"`
	EmbedDim       int                  `env:"EMBED_DIM" envDefault:"3072"`
	EmbedBatchSize int                  `env:"EMBED_BATCH_SIZE" envDefault:"100"`
	ChatModel      string               `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	RequestTimeout time.Duration        `env:"TIMEOUT" envDefault:"60s"`
	Retry          pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// StorageConfig holds the object storage (Supabase-compatible) configuration.
type StorageConfig struct {
	HTTPClientConfig
	Bucket string `env:"BUCKET" envDefault:"materials"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

// IngestConfig holds chunking and upload limits.
type IngestConfig struct {
	ChunkSize     int   `env:"CHUNK_SIZE" envDefault:"500"`
	ChunkOverlap  int   `env:"CHUNK_OVERLAP" envDefault:"100"`
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"52428800"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"67108864"`
}

// ChatConfig holds the query pipeline configuration.
type ChatConfig struct {
	TopK             int           `env:"TOP_K" envDefault:"10"`
	SystemPromptPath string        `env:"SYSTEM_PROMPT_PATH" envDefault:"system_message.txt"`
	FilesCacheTTL    time.Duration `env:"FILES_CACHE_TTL" envDefault:"30s"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	loadSystemPrompt(cfg)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.OpenAICfg.EmbedDim < 1 {
		errs = append(errs, fmt.Sprintf("OPENAI_EMBED_DIM must be positive, got %d", cfg.OpenAICfg.EmbedDim))
	}

	if cfg.OpenAICfg.EmbedBatchSize < 1 || cfg.OpenAICfg.EmbedBatchSize > 500 {
		errs = append(errs, fmt.Sprintf("OPENAI_EMBED_BATCH_SIZE must be between 1 and 500, got %d", cfg.OpenAICfg.EmbedBatchSize))
	}

	if cfg.IngestCfg.ChunkSize < 1 {
		errs = append(errs, fmt.Sprintf("INGEST_CHUNK_SIZE must be positive, got %d", cfg.IngestCfg.ChunkSize))
	}

	if cfg.IngestCfg.ChunkOverlap < 0 || cfg.IngestCfg.ChunkOverlap >= cfg.IngestCfg.ChunkSize {
		errs = append(errs, fmt.Sprintf("INGEST_CHUNK_OVERLAP must be between 0 and INGEST_CHUNK_SIZE(%d), got %d",
			cfg.IngestCfg.ChunkSize, cfg.IngestCfg.ChunkOverlap))
	}

	if cfg.ChatCfg.TopK < 1 || cfg.ChatCfg.TopK > 100 {
		errs = append(errs, fmt.Sprintf("CHAT_TOP_K must be between 1 and 100, got %d", cfg.ChatCfg.TopK))
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func loadSystemPrompt(cfg *Config) {
	data, err := os.ReadFile(cfg.ChatCfg.SystemPromptPath)
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		fmt.Printf("Warning: could not load system prompt from %s, using built-in default\n", cfg.ChatCfg.SystemPromptPath)
		cfg.SystemPrompt = defaultSystemPrompt
		return
	}

	cfg.SystemPrompt = strings.TrimSpace(string(data))
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
