package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/models"
)

// TopK is the number of articles retrieved for a chat turn.
const TopK = 3

// ContextSeparator joins retrieved article texts into a single context block.
const ContextSeparator = "\n\n---\n\n"

// Backend is a vector index holding news documents.
type Backend interface {
	// EnsureCollection creates the collection when it is absent.
	EnsureCollection(ctx context.Context) error
	// Query returns up to limit documents ordered by cosine similarity.
	Query(ctx context.Context, vector []float32, limit int) ([]models.Document, error)
	// Upsert writes docs and returns once the index acknowledges them.
	Upsert(ctx context.Context, docs []models.Document) error
	Close() error
}

// Searcher turns a query vector into the context text handed to the generator.
type Searcher struct {
	backend Backend
}

func NewSearcher(backend Backend) *Searcher {
	return &Searcher{backend: backend}
}

// Search returns the content of the closest articles joined by ContextSeparator.
// No matches yields an empty context, not an error.
func (s *Searcher) Search(ctx context.Context, vector []float32) (string, error) {
	docs, err := s.backend.Query(ctx, vector, TopK)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Content == "" {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, ContextSeparator), nil
}

// Open connects the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.VectorConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.VectorBackendQdrant:
		q, err := NewQdrant(cfg.Qdrant)
		if err != nil {
			return nil, err
		}
		return q, nil
	case config.VectorBackendPgvector:
		p, err := NewPgvector(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.Backend)
	}
}

func validateVector(v []float32) error {
	if len(v) != models.EmbeddingDimensions {
		return fmt.Errorf("vector has %d dimensions, want %d", len(v), models.EmbeddingDimensions)
	}
	return nil
}
