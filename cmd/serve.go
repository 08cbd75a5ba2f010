package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammad-safakhou/newsrag/internal/chat"
	"github.com/mohammad-safakhou/newsrag/internal/runtime"
	"github.com/mohammad-safakhou/newsrag/internal/server"
	"github.com/mohammad-safakhou/newsrag/internal/vectorstore"
	"github.com/mohammad-safakhou/newsrag/provider"
	"github.com/mohammad-safakhou/newsrag/session"
	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Port = addr
			}
			ctx := cmd.Context()

			tel, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, runtime.TelemetryOptions{
				ServiceName:    cfg.Telemetry.ServiceName,
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
			generator, err := provider.NewGenerator(cfg.Providers.Generation)
			if err != nil {
				return err
			}
			backend, err := vectorstore.Open(ctx, cfg.Vector)
			if err != nil {
				return fmt.Errorf("vector store: %w", err)
			}
			defer func() { _ = backend.Close() }()
			history, err := session.NewStore(ctx, cfg.Storage.Session)
			if err != nil {
				return fmt.Errorf("session store: %w", err)
			}
			defer func() { _ = history.Close() }()

			svc := chat.NewService(embedder, vectorstore.NewSearcher(backend), generator, history, chat.Options{
				HistoryBestEffort: cfg.Chat.HistoryBestEffort,
				Meter:             tel.Meter,
				Tracer:            tel.Tracer,
			})

			var serviceName string
			if cfg.Telemetry.Enabled {
				serviceName = cfg.Telemetry.ServiceName
			}
			e := server.New(svc, server.Options{
				AllowOrigins:   cfg.Server.AllowOrigins,
				ServiceName:    serviceName,
				MetricsHandler: tel.MetricsHandler(),
				Logger:         slog.Default(),
			})
			return server.Run(ctx, e, cfg.Server)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address or port (overrides server.port)")
	return serve
}

func shutdownTelemetry(tel *runtime.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Warn("telemetry_shutdown_failed", slog.Any("error", err))
	}
}
