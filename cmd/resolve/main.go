// Command resolve runs the location resolver once against the configured
// providers and prints the result. The cache is bypassed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/disaster-response-service/internal/app"
	"github.com/couchcryptid/disaster-response-service/internal/config"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

func main() {
	description := flag.String("description", "", "disaster description to resolve")
	flag.Parse()

	if *description == "" {
		fmt.Fprintln(os.Stderr, "usage: resolve -description \"Flood in Manhattan due to heavy rain.\"")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := app.NewResolver(app.NewProviders(cfg, logger, metrics), nil, logger, metrics)
	result, err := r.Resolve(ctx, *description)
	if err != nil {
		logger.Error("resolution failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
