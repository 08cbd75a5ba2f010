package provider

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/provider/gemini"
	"github.com/mohammad-safakhou/newsrag/provider/jina"
)

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(config.EmbeddingConfig{Provider: "jina", APIKey: "k", BaseURL: config.DefaultJinaBaseURL, Model: config.DefaultJinaModel, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	if _, ok := e.(*jina.Client); !ok {
		t.Fatalf("expected *jina.Client, got %T", e)
	}

	if _, err := NewEmbedder(config.EmbeddingConfig{Provider: "jina"}); err == nil {
		t.Fatalf("expected error without api key")
	}
	if _, err := NewEmbedder(config.EmbeddingConfig{Provider: "nope", APIKey: "k"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator(config.GenerationConfig{Provider: "gemini", APIKey: "k", BaseURL: config.DefaultGeminiBaseURL, Model: config.DefaultGeminiModel})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if _, ok := g.(*gemini.Client); !ok {
		t.Fatalf("expected *gemini.Client, got %T", g)
	}
	if _, err := NewGenerator(config.GenerationConfig{Provider: "openai", APIKey: "k"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
