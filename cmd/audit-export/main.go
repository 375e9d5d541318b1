package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gbaldan/invoice-audit/internal/common"
	"github.com/gbaldan/invoice-audit/internal/export"
	"github.com/gbaldan/invoice-audit/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out     = flag.String("out", "", "output file path (required)")
		format  = flag.String("format", "xlsx", "output format: xlsx or csv")
		company = flag.String("company", "", "restrict to one company code (optional)")
	)
	flag.Parse()

	if *out == "" {
		printError("Error: --out is required\n")
		os.Exit(1)
	}
	if *format != "xlsx" && *format != "csv" {
		printError("Error: --format must be xlsx or csv\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.json"
	}
	cfg, err := common.LoadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load configuration", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	repo, cleanup, err := repository.OpenFromConfig(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open audit store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var companyFilter *string
	if *company != "" {
		companyFilter = company
	}

	svc := export.NewService(repo, logger)
	var data []byte
	switch *format {
	case "csv":
		data, err = svc.ExportCSV(ctx, companyFilter)
	default:
		data, err = svc.ExportXLSX(ctx, companyFilter)
	}
	if err != nil {
		logger.Error("export failed", "format", *format, "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("export complete", "format", *format, "output", *out, "bytes", len(data))
	fmt.Printf("Export complete: %s\n", *out)
}
