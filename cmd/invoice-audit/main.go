package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gbaldan/invoice-audit/internal/checkpoint"
	"github.com/gbaldan/invoice-audit/internal/common"
	"github.com/gbaldan/invoice-audit/internal/ingest"
	"github.com/gbaldan/invoice-audit/internal/repository"
	"github.com/gbaldan/invoice-audit/internal/source"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfgPath := getenv("CONFIG_PATH", "config.json")
	cfg, err := common.LoadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load configuration", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := repository.OpenFromConfig(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open audit store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	descriptors, err := source.ParseDescriptors(cfg.Source.DSN)
	if err != nil {
		logger.Error("failed to parse source descriptors", "error", err)
		os.Exit(1)
	}

	cp := checkpoint.New(cfg.Checkpoint)
	opener := func(ctx context.Context, d source.Descriptor) (source.Fetcher, error) {
		return source.Open(ctx, d, logger)
	}

	ingestor := ingest.NewIngestor(descriptors, opener, repo, cp, logger)
	stats, err := ingestor.Run(ctx)
	if err != nil {
		logger.Error("ingestion run failed",
			"error", err, "persisted", stats.Persisted, "checkpoint", cp.Path())
		os.Exit(1)
	}

	logger.Info("ingestion run complete",
		"companies", len(descriptors),
		"fetched", stats.Fetched,
		"skipped", stats.Skipped,
		"persisted", stats.Persisted,
	)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
