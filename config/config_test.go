package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsAndEnvAliases(t *testing.T) {
	t.Setenv("JINA_API_KEY", "jina-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("QDRANT_URL", "https://cluster.example.com:6333")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "4000")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Providers.Embedding.APIKey != "jina-key" {
		t.Fatalf("expected embedding key from JINA_API_KEY, got %q", cfg.Providers.Embedding.APIKey)
	}
	if cfg.Providers.Generation.APIKey != "gemini-key" {
		t.Fatalf("expected generation key from GEMINI_API_KEY, got %q", cfg.Providers.Generation.APIKey)
	}
	if cfg.Vector.Qdrant.URL != "https://cluster.example.com:6333" {
		t.Fatalf("unexpected qdrant url %q", cfg.Vector.Qdrant.URL)
	}
	if cfg.Storage.Session.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected redis url %q", cfg.Storage.Session.Redis.URL)
	}
	if got := cfg.Server.Address(); got != ":4000" {
		t.Fatalf("expected :4000, got %q", got)
	}
	if cfg.Providers.Embedding.Model != DefaultJinaModel {
		t.Fatalf("expected default model, got %q", cfg.Providers.Embedding.Model)
	}
	if cfg.Ingest.BatchSize != 10 || cfg.Ingest.MaxItems != 50 {
		t.Fatalf("unexpected ingest defaults: %+v", cfg.Ingest)
	}
	if cfg.Vector.Backend != VectorBackendQdrant {
		t.Fatalf("expected qdrant backend, got %q", cfg.Vector.Backend)
	}
}

func TestLoadConfigPrefixedEnvWins(t *testing.T) {
	t.Setenv("NEWSRAG_PROVIDERS_EMBEDDING_API_KEY", "prefixed")
	t.Setenv("JINA_API_KEY", "plain")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Providers.Embedding.APIKey != "prefixed" {
		t.Fatalf("expected prefixed env to win, got %q", cfg.Providers.Embedding.APIKey)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsrag.yaml")
	body := `
server:
  port: "8088"
vector:
  backend: pgvector
  postgres:
    host: db
    dbname: news
storage:
  session:
    backend: memory
chat:
  history_best_effort: true
ingest:
  batch_size: 5
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Vector.Backend != VectorBackendPgvector {
		t.Fatalf("expected pgvector backend, got %q", cfg.Vector.Backend)
	}
	if got := cfg.Vector.Postgres.DSN(); got != "postgres://:@db:5432/news?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", got)
	}
	if cfg.Storage.Session.Backend != SessionBackendMemory {
		t.Fatalf("expected memory session backend, got %q", cfg.Storage.Session.Backend)
	}
	if !cfg.Chat.HistoryBestEffort {
		t.Fatalf("expected history_best_effort from file")
	}
	if cfg.Ingest.BatchSize != 5 || cfg.Ingest.Timeout != 5*time.Second {
		t.Fatalf("unexpected ingest config: %+v", cfg.Ingest)
	}
	if cfg.Server.Address() != ":8088" {
		t.Fatalf("unexpected address %q", cfg.Server.Address())
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("NEWSRAG_VECTOR_BACKEND", "faiss")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for unknown vector backend")
	}
}

func TestProviderValidate(t *testing.T) {
	if err := (EmbeddingConfig{}).Validate(); err == nil {
		t.Fatalf("expected missing embedding key error")
	}
	if err := (GenerationConfig{APIKey: "k"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	norm := EmbeddingConfig{BaseURL: "https://api.jina.ai/v1/"}.Normalize()
	if norm.BaseURL != "https://api.jina.ai/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", norm.BaseURL)
	}
}
