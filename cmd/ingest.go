package main

import (
	"fmt"
	"log/slog"

	"github.com/mohammad-safakhou/newsrag/internal/ingest"
	"github.com/mohammad-safakhou/newsrag/internal/runtime"
	"github.com/mohammad-safakhou/newsrag/internal/vectorstore"
	"github.com/mohammad-safakhou/newsrag/news/rss"
	"github.com/mohammad-safakhou/newsrag/provider"
	"github.com/spf13/cobra"
)

func ingestCMD(cfgPath *string) *cobra.Command {
	var feedURL string
	var maxItems, batchSize int
	ing := &cobra.Command{
		Use:   "ingest",
		Short: "Load the news feed into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if feedURL != "" {
				cfg.Ingest.FeedURL = feedURL
			}
			if maxItems > 0 {
				cfg.Ingest.MaxItems = maxItems
			}
			if batchSize > 0 {
				cfg.Ingest.BatchSize = batchSize
			}
			ctx := cmd.Context()

			tel, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, runtime.TelemetryOptions{
				ServiceName:    cfg.Telemetry.ServiceName + "-ingest",
				ServiceVersion: version,
			})
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			defer shutdownTelemetry(tel)

			embedder, err := provider.NewEmbedder(cfg.Providers.Embedding)
			if err != nil {
				return err
			}
			backend, err := vectorstore.Open(ctx, cfg.Vector)
			if err != nil {
				return fmt.Errorf("vector store: %w", err)
			}
			defer func() { _ = backend.Close() }()

			job := ingest.NewJob(cfg.Ingest, rss.NewFetcher(cfg.Ingest.Timeout), embedder, backend, tel.Meter, tel.Tracer)
			res, err := job.Run(ctx)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			slog.Info("ingest_finished",
				slog.Int("items", res.Items),
				slog.Int("batches", res.Batches),
				slog.Int("documents", res.Documents),
			)
			return nil
		},
	}
	ing.Flags().StringVar(&feedURL, "feed", "", "feed url (overrides ingest.feed_url)")
	ing.Flags().IntVar(&maxItems, "max-items", 0, "number of feed items to ingest (overrides ingest.max_items)")
	ing.Flags().IntVar(&batchSize, "batch-size", 0, "items per embedding batch (overrides ingest.batch_size)")
	return ing
}
