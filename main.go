package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/mindjournal/internal/app"
	"github.com/shandysiswandi/mindjournal/internal/pkg/config"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to init application", "error", err)
		os.Exit(1)
	}

	runErr := application.Run(context.Background())
	if runErr != nil {
		slog.Error("http server stopped unexpectedly", "error", runErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetDuration("http.shutdown_timeout"))
	application.Stop(ctx)
	cancel()

	if runErr != nil {
		os.Exit(1)
	}
}
