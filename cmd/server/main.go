package main

import (
	"context"
	"log/slog"
	"os"

	"gestao/internal/app/server"
	"gestao/internal/platform/config"
	"gestao/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	app, err := server.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		slog.Error("server stopped", "err", err)
		app.Close()
		os.Exit(1)
	}
}
