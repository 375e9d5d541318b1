package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gbaldan/invoice-audit/internal/common"
	repo "github.com/gbaldan/invoice-audit/internal/repository"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.json"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := common.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	pool, err := repo.Open(ctx, cfg.Store, logger)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer pool.Close()

	if err := repo.HealthCheck(ctx, pool, 1*time.Second, logger); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Println("DB health: OK")

	store := repo.NewPostgresAuditRepository(pool, logger)
	entries, err := store.List(ctx, nil)
	if err != nil {
		log.Fatalf("listing audit entries: %v", err)
	}
	log.Printf("audit entries: %d", len(entries))
}
