// Package config loads application-wide configuration from environment
// variables, with an optional local .env file for development.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the ingestion service.
type Config struct {
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/ingestor.db"`

	ServerHost string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StructurerProvider string `env:"DOCUMENT_STRUCTURER_PROVIDER" envDefault:"reference"`
	EmbeddingProvider  string `env:"EMBEDDING_PROVIDER" envDefault:"reference"`

	StructurerBaseURL     string  `env:"STRUCTURER_MODEL_BASE_URL" envDefault:"http://localhost:11434"`
	StructurerModel       string  `env:"STRUCTURER_MODEL_NAME" envDefault:"llama3.2:3b"`
	StructurerMode        string  `env:"STRUCTURER_MODE" envDefault:"native"`
	StructurerTemperature float64 `env:"STRUCTURER_TEMPERATURE" envDefault:"0.0"`
	StructurerNumCtx      int     `env:"STRUCTURER_NUM_CTX" envDefault:"0"`
	StructurerMaxTokens   int     `env:"STRUCTURER_MAX_TOKENS" envDefault:"0"`
	StructurerAPIKey      string  `env:"STRUCTURER_API_KEY" envDefault:""`
	StructurerRateLimitRPS float64 `env:"STRUCTURER_RATE_LIMIT_RPS" envDefault:"2"`

	EmbedderBaseURL      string  `env:"EMBEDDER_MODEL_BASE_URL" envDefault:"http://localhost:11434"`
	EmbedderModel        string  `env:"EMBEDDER_MODEL_NAME" envDefault:"nomic-embed-text"`
	EmbedderAPIKey       string  `env:"EMBEDDER_API_KEY" envDefault:""`
	EmbedderRateLimitRPS float64 `env:"EMBEDDER_RATE_LIMIT_RPS" envDefault:"4"`

	WorkerPollInterval    time.Duration `env:"INGESTION_WORKER_POLL_MS" envDefault:"2000ms"`
	WorkerDBWaitTimeout   time.Duration `env:"INGESTION_WORKER_DB_WAIT_TIMEOUT_MS" envDefault:"30000ms"`
	WorkerDBWaitPoll      time.Duration `env:"INGESTION_WORKER_DB_WAIT_POLL_MS" envDefault:"500ms"`

	StaleClaimMinutes int    `env:"INGESTION_STALE_CLAIM_MINUTES" envDefault:"10"`
	StaleClaimCron    string `env:"INGESTION_STALE_CLAIM_CRON" envDefault:"0 */5 * * * *"`

	StoredFilesRoot string `env:"STORED_FILES_ROOT" envDefault:"./data/uploads"`
}

// Load reads .env (if present) then parses process environment variables
// into a Config, applying defaults for anything unset. A missing .env file
// is not an error — it is expected in production deployments.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
