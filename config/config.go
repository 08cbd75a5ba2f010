package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the chat service and the ingestion job
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the listen address derived from Port.
func (s ServerConfig) Address() string {
	port := strings.TrimSpace(s.Port)
	if port == "" {
		port = "3001"
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// ChatConfig tunes the chat turn pipeline.
type ChatConfig struct {
	// HistoryBestEffort keeps an answer when the history write fails.
	HistoryBestEffort bool `mapstructure:"history_best_effort"`
}

// IngestConfig contains feed ingestion settings
type IngestConfig struct {
	FeedURL   string        `mapstructure:"feed_url"`
	MaxItems  int           `mapstructure:"max_items"`
	BatchSize int           `mapstructure:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Normalize applies defaults for unset ingestion values.
func (c IngestConfig) Normalize() IngestConfig {
	c.FeedURL = strings.TrimSpace(c.FeedURL)
	if c.FeedURL == "" {
		c.FeedURL = DefaultFeedURL
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 50
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// TelemetryConfig contains metrics and tracing settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// DefaultFeedURL is the syndication feed ingested when none is configured.
const DefaultFeedURL = "http://rss.cnn.com/rss/cnn_topstories.rss"

// envAliases maps config keys to the plain environment names the service
// has always accepted, next to the NEWSRAG_ prefixed ones.
var envAliases = map[string][]string{
	"general.log_level":             {"LOG_LEVEL"},
	"server.port":                   {"PORT"},
	"providers.embedding.api_key":   {"JINA_API_KEY"},
	"providers.embedding.base_url":  {"JINA_API_URL"},
	"providers.generation.api_key":  {"GEMINI_API_KEY"},
	"providers.generation.base_url": {"GEMINI_API_URL"},
	"vector.qdrant.url":             {"QDRANT_URL"},
	"vector.qdrant.api_key":         {"QDRANT_API_KEY"},
	"vector.postgres.url":           {"DATABASE_URL"},
	"storage.session.redis.url":     {"REDIS_URL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("providers.embedding.provider", "jina")
	v.SetDefault("providers.embedding.api_key", "")
	v.SetDefault("providers.embedding.base_url", DefaultJinaBaseURL)
	v.SetDefault("providers.embedding.model", DefaultJinaModel)
	v.SetDefault("providers.embedding.timeout", 30*time.Second)
	v.SetDefault("providers.embedding.disable_sdk", false)
	v.SetDefault("providers.generation.provider", "gemini")
	v.SetDefault("providers.generation.api_key", "")
	v.SetDefault("providers.generation.base_url", DefaultGeminiBaseURL)
	v.SetDefault("providers.generation.model", DefaultGeminiModel)
	v.SetDefault("providers.generation.timeout", 60*time.Second)

	v.SetDefault("vector.backend", VectorBackendQdrant)
	v.SetDefault("vector.qdrant.url", "")
	v.SetDefault("vector.qdrant.host", "localhost")
	v.SetDefault("vector.qdrant.port", 6334)
	v.SetDefault("vector.qdrant.api_key", "")
	v.SetDefault("vector.qdrant.use_tls", false)
	v.SetDefault("vector.postgres.url", "")
	v.SetDefault("vector.postgres.host", "")
	v.SetDefault("vector.postgres.port", "5432")
	v.SetDefault("vector.postgres.user", "")
	v.SetDefault("vector.postgres.password", "")
	v.SetDefault("vector.postgres.dbname", "")
	v.SetDefault("vector.postgres.sslmode", "disable")
	v.SetDefault("vector.postgres.timeout", 5*time.Second)

	v.SetDefault("storage.session.backend", SessionBackendRedis)
	v.SetDefault("storage.session.redis.url", "")
	v.SetDefault("storage.session.redis.host", "localhost")
	v.SetDefault("storage.session.redis.port", "6379")
	v.SetDefault("storage.session.redis.password", "")
	v.SetDefault("storage.session.redis.db", 0)
	v.SetDefault("storage.session.redis.timeout", 5*time.Second)

	v.SetDefault("chat.history_best_effort", false)

	v.SetDefault("ingest.feed_url", DefaultFeedURL)
	v.SetDefault("ingest.max_items", 50)
	v.SetDefault("ingest.batch_size", 10)
	v.SetDefault("ingest.timeout", 30*time.Second)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "newsrag")
	v.SetDefault("telemetry.otlp_endpoint", "")
}

// LoadConfig loads config from an optional file and the environment.
// A missing config file is not an error; every setting has an env binding.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("NEWSRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"NEWSRAG_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Ingest = cfg.Ingest.Normalize()
	cfg.Providers.Embedding = cfg.Providers.Embedding.Normalize()
	cfg.Providers.Generation = cfg.Providers.Generation.Normalize()
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if err := cfg.Vector.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Session.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
