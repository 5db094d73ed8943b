package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"moveserver/internal/app/bootstrap"
	"moveserver/internal/platform/config"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Select the persistence backend and wire the drop service.
// 3) Serve HTTP and run the expiry sweep until SIGINT/SIGTERM.
func main() {
	if err := run(); err != nil {
		log.Fatalf("moveserver api stopped with error: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	app, err := bootstrap.BuildAPI(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("api shutdown close failed",
				"event", "api_close_failed",
				"module", "cmd/api",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}()

	return app.Run(ctx)
}
