package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/helpers"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/news"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the write side of the vector store.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, docs []models.Document) error
}

// Result summarises a completed run.
type Result struct {
	Items     int
	Batches   int
	Documents int
}

// Job loads a news feed into the vector index.
type Job struct {
	cfg      config.IngestConfig
	fetcher  news.Fetcher
	embedder Embedder
	index    Index
	tracer   trace.Tracer
	newID    func() string

	docCounter   otelmetric.Int64Counter
	batchLatency otelmetric.Float64Histogram
}

func NewJob(cfg config.IngestConfig, fetcher news.Fetcher, embedder Embedder, index Index, meter otelmetric.Meter, tracer trace.Tracer) *Job {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("ingest")
	}
	j := &Job{
		cfg:      cfg.Normalize(),
		fetcher:  fetcher,
		embedder: embedder,
		index:    index,
		tracer:   tracer,
		newID:    uuid.NewString,
	}
	if meter != nil {
		var err error
		j.docCounter, err = meter.Int64Counter("ingest_documents_total")
		if err != nil {
			slog.Warn("ingest_metric_init_failed", slog.String("metric", "ingest_documents_total"), slog.Any("error", err))
		}
		j.batchLatency, err = meter.Float64Histogram("ingest_batch_seconds")
		if err != nil {
			slog.Warn("ingest_metric_init_failed", slog.String("metric", "ingest_batch_seconds"), slog.Any("error", err))
		}
	}
	return j
}

// Run ensures the collection, fetches the feed and writes the first
// MaxItems items in batches of BatchSize. The first failure aborts the run;
// batches written before it stay in the index.
func (j *Job) Run(ctx context.Context) (Result, error) {
	ctx, span := j.tracer.Start(ctx, "ingest.run")
	defer span.End()

	var res Result
	if err := j.index.EnsureCollection(ctx); err != nil {
		return res, fmt.Errorf("ensure collection: %w", err)
	}

	items, err := j.fetcher.Fetch(ctx, j.cfg.FeedURL)
	if err != nil {
		return res, fmt.Errorf("fetch feed: %w", err)
	}
	if len(items) > j.cfg.MaxItems {
		items = items[:j.cfg.MaxItems]
	}
	res.Items = len(items)
	slog.Info("ingest_started",
		slog.String("feed", j.cfg.FeedURL),
		slog.Int("items", len(items)),
		slog.Int("batch_size", j.cfg.BatchSize),
	)

	for start := 0; start < len(items); start += j.cfg.BatchSize {
		end := min(start+j.cfg.BatchSize, len(items))
		n, err := j.writeBatch(ctx, items[start:end])
		if err != nil {
			return res, fmt.Errorf("batch %d (items %d-%d): %w", res.Batches+1, start, end-1, err)
		}
		res.Batches++
		res.Documents += n
		slog.Info("ingest_batch_written", slog.Int("batch", res.Batches), slog.Int("documents", n))
	}

	span.SetAttributes(
		attribute.Int("ingest.batches", res.Batches),
		attribute.Int("ingest.documents", res.Documents),
	)
	slog.Info("ingest_completed", slog.Int("batches", res.Batches), slog.Int("documents", res.Documents))
	return res, nil
}

func (j *Job) writeBatch(ctx context.Context, items []news.Item) (int, error) {
	ctx, span := j.tracer.Start(ctx, "ingest.batch")
	defer span.End()
	start := time.Now()

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = DocumentText(it)
	}
	vectors, err := j.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(items) {
		return 0, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(items))
	}

	docs := make([]models.Document, len(items))
	for i, it := range items {
		docs[i] = models.Document{
			ID:      j.newID(),
			Title:   it.Title,
			Content: texts[i],
			URL:     it.Link,
			Vector:  vectors[i],
		}
	}
	if err := j.index.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}

	if j.docCounter != nil {
		j.docCounter.Add(ctx, int64(len(docs)))
	}
	if j.batchLatency != nil {
		j.batchLatency.Record(ctx, time.Since(start).Seconds())
	}
	return len(docs), nil
}

// DocumentText is the indexed text of an item: its title and plain-text body.
// The body comes from the item's content, or its description when the
// content is empty.
func DocumentText(it news.Item) string {
	body := helpers.PlainText(it.Content)
	if body == "" {
		body = helpers.PlainText(it.Description)
	}
	return it.Title + ": " + body
}
