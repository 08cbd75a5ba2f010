package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/pgvector/pgvector-go"
)

// Pgvector keeps documents in a Postgres table with a vector(768) column.
type Pgvector struct {
	DB *sql.DB
}

func NewPgvector(ctx context.Context, cfg config.PostgresConfig) (*Pgvector, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	pingCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Pgvector{DB: db}, nil
}

func (p *Pgvector) EnsureCollection(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS news_articles (
  id UUID PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  embedding vector(%d) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, models.EmbeddingDimensions))
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func (p *Pgvector) Query(ctx context.Context, vector []float32, limit int) ([]models.Document, error) {
	if err := validateVector(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = TopK
	}
	rows, err := p.DB.QueryContext(ctx, `
SELECT id, title, content, url
FROM news_articles
ORDER BY embedding <=> $1::vector
LIMIT $2
`, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.URL); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Upsert writes docs in one transaction; the commit is the acknowledgement.
func (p *Pgvector) Upsert(ctx context.Context, docs []models.Document) (err error) {
	if len(docs) == 0 {
		return nil
	}
	for _, d := range docs {
		if err := validateVector(d.Vector); err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
	}
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, d := range docs {
		_, err = tx.ExecContext(ctx, `
INSERT INTO news_articles (id, title, content, url, embedding)
VALUES ($1,$2,$3,$4,$5::vector)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  content = EXCLUDED.content,
  url = EXCLUDED.url,
  embedding = EXCLUDED.embedding;
`, d.ID, d.Title, d.Content, d.URL, pgvector.NewVector(d.Vector))
		if err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

func (p *Pgvector) Close() error {
	return p.DB.Close()
}
