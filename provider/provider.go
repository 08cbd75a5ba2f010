package provider

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/provider/gemini"
	"github.com/mohammad-safakhou/newsrag/provider/jina"
)

// Client names an external model provider
type Client string

const (
	Jina   Client = "jina"
	Gemini Client = "gemini"
)

// Embedder converts texts into vectors, one per input and in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator answers a question from a block of retrieved context.
type Generator interface {
	Answer(ctx context.Context, query, context string) (string, error)
}

// NewEmbedder creates the embedding client selected by cfg.Provider.
func NewEmbedder(cfg config.EmbeddingConfig) (Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch Client(cfg.Provider) {
	case Jina:
		return jina.NewClient(jina.Options{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			DisableSDK: cfg.DisableSDK,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// NewGenerator creates the answer generator selected by cfg.Provider.
func NewGenerator(cfg config.GenerationConfig) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch Client(cfg.Provider) {
	case Gemini:
		return gemini.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}
