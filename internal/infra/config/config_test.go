// No t.Parallel() — env vars are process-global and not thread-safe.
package config

import (
	"testing"
	"time"
)

func clearIngestionEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"DATABASE_PATH", "SERVER_HOST", "SERVER_PORT", "LOG_LEVEL",
		"DOCUMENT_STRUCTURER_PROVIDER", "EMBEDDING_PROVIDER",
		"STRUCTURER_MODEL_BASE_URL", "STRUCTURER_MODEL_NAME", "STRUCTURER_MODE",
		"STRUCTURER_TEMPERATURE", "STRUCTURER_NUM_CTX", "STRUCTURER_MAX_TOKENS",
		"STRUCTURER_API_KEY", "STRUCTURER_RATE_LIMIT_RPS",
		"EMBEDDER_MODEL_BASE_URL", "EMBEDDER_MODEL_NAME", "EMBEDDER_API_KEY",
		"EMBEDDER_RATE_LIMIT_RPS",
		"INGESTION_WORKER_POLL_MS", "INGESTION_WORKER_DB_WAIT_TIMEOUT_MS",
		"INGESTION_WORKER_DB_WAIT_POLL_MS",
		"INGESTION_STALE_CLAIM_MINUTES", "INGESTION_STALE_CLAIM_CRON",
		"STORED_FILES_ROOT",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearIngestionEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DatabasePath != "./data/ingestor.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.StructurerProvider != "reference" {
		t.Errorf("StructurerProvider = %q", cfg.StructurerProvider)
	}
	if cfg.EmbeddingProvider != "reference" {
		t.Errorf("EmbeddingProvider = %q", cfg.EmbeddingProvider)
	}
	if cfg.WorkerPollInterval != 2000*time.Millisecond {
		t.Errorf("WorkerPollInterval = %v", cfg.WorkerPollInterval)
	}
	if cfg.WorkerDBWaitTimeout != 30*time.Second {
		t.Errorf("WorkerDBWaitTimeout = %v", cfg.WorkerDBWaitTimeout)
	}
	if cfg.StaleClaimMinutes != 10 {
		t.Errorf("StaleClaimMinutes = %d", cfg.StaleClaimMinutes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearIngestionEnv(t)
	t.Setenv("DOCUMENT_STRUCTURER_PROVIDER", "remote")
	t.Setenv("EMBEDDING_PROVIDER", "remote")
	t.Setenv("INGESTION_WORKER_POLL_MS", "500ms")
	t.Setenv("STRUCTURER_RATE_LIMIT_RPS", "7.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.StructurerProvider != "remote" {
		t.Errorf("StructurerProvider = %q", cfg.StructurerProvider)
	}
	if cfg.EmbeddingProvider != "remote" {
		t.Errorf("EmbeddingProvider = %q", cfg.EmbeddingProvider)
	}
	if cfg.WorkerPollInterval != 500*time.Millisecond {
		t.Errorf("WorkerPollInterval = %v", cfg.WorkerPollInterval)
	}
	if cfg.StructurerRateLimitRPS != 7.5 {
		t.Errorf("StructurerRateLimitRPS = %v", cfg.StructurerRateLimitRPS)
	}
}
