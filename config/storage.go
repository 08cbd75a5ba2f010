package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	VectorBackendQdrant   = "qdrant"
	VectorBackendPgvector = "pgvector"

	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// VectorConfig selects and configures the vector store
type VectorConfig struct {
	Backend  string         `mapstructure:"backend"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

func (v VectorConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(v.Backend)) {
	case VectorBackendQdrant:
		return v.Qdrant.Validate()
	case VectorBackendPgvector:
		return v.Postgres.Validate()
	default:
		return fmt.Errorf("vector.backend must be %q or %q, got %q", VectorBackendQdrant, VectorBackendPgvector, v.Backend)
	}
}

// QdrantConfig contains Qdrant connection settings. URL takes precedence
// over Host/Port and may be the REST address of a managed cluster.
type QdrantConfig struct {
	URL    string `mapstructure:"url"`
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

func (q QdrantConfig) Validate() error {
	if strings.TrimSpace(q.URL) != "" {
		return nil
	}
	if strings.TrimSpace(q.Host) == "" {
		return fmt.Errorf("vector.qdrant.host required when url is not provided")
	}
	if q.Port <= 0 {
		return fmt.Errorf("vector.qdrant.port must be > 0")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("vector.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("vector.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN returns the connection string, building one from the parts when URL is unset.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// StorageConfig contains session storage settings
type StorageConfig struct {
	Session SessionConfig `mapstructure:"session"`
}

// SessionConfig selects the chat history backend
type SessionConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

func (s SessionConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case SessionBackendRedis:
		return s.Redis.Validate()
	case SessionBackendMemory:
		return nil
	default:
		return fmt.Errorf("storage.session.backend must be %q or %q, got %q", SessionBackendRedis, SessionBackendMemory, s.Backend)
	}
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.URL) != "" {
		return nil
	}
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.session.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.session.redis.port required")
	}
	return nil
}
