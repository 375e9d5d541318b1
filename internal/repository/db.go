package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gbaldan/invoice-audit/internal/common"
)

// Open creates the pgx pool backing the Postgres audit store.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to audit store", "server", cfg.Server, "database", cfg.Database)
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		logger.Error("failed to parse store DSN", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "invoice-audit"

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to audit store", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to audit store")
	return pool, nil
}

// Close closes the database connections gracefully
func Close(pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("closing audit store connections")
	if pool != nil {
		pool.Close()
	}
	logger.Info("audit store connections closed")
}

// HealthCheck pings the store to catch DSN issues early.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging audit store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Debug("audit store ping successful")
	return nil
}
