package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"
	DefaultJinaModel     = "jina-embeddings-v2-base-en"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.0-flash"
)

// ProvidersConfig groups the external model providers
type ProvidersConfig struct {
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider string        `mapstructure:"provider"` // jina
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// DisableSDK skips the SDK client and calls the REST endpoint directly.
	DisableSDK bool `mapstructure:"disable_sdk"`
}

// Normalize applies defaults for unset embedding values.
func (c EmbeddingConfig) Normalize() EmbeddingConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "jina"
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultJinaBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultJinaModel
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

func (c EmbeddingConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("providers.embedding.api_key required (JINA_API_KEY)")
	}
	return nil
}

// GenerationConfig configures the generative answer provider
type GenerationConfig struct {
	Provider string        `mapstructure:"provider"` // gemini
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Normalize applies defaults for unset generation values.
func (c GenerationConfig) Normalize() GenerationConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultGeminiBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultGeminiModel
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

func (c GenerationConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("providers.generation.api_key required (GEMINI_API_KEY)")
	}
	return nil
}
