package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/gbaldan/invoice-audit/internal/common"
)

// OpenFromConfig opens the audit store for the configured driver and ensures
// its schema. The returned func releases the underlying connections.
func OpenFromConfig(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (AuditRepository, func(), error) {
	if cfg.Driver == "sqlite" {
		repo, err := OpenSQLite(ctx, cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Error("failed to close sqlite store", "error", err)
			}
		}, nil
	}

	pool, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		Close(pool, logger)
		return nil, nil, err
	}
	repo := NewPostgresAuditRepository(pool, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		Close(pool, logger)
		return nil, nil, err
	}
	return repo, func() { Close(pool, logger) }, nil
}
