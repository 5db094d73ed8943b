package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dropservice "moveserver/contexts/geo-rewards/drop-service"
	"moveserver/contexts/geo-rewards/drop-service/application/workers"
	"moveserver/internal/platform/config"
	"moveserver/internal/platform/db"
	"moveserver/internal/platform/httpserver"
	"moveserver/internal/platform/messaging"
	"moveserver/internal/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server         *httpserver.Server
	expirer        workers.DropExpirer
	expiryInterval time.Duration
	postgres       *db.Postgres
	backend        string
	logger         *slog.Logger
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "api")

	promMetrics := metrics.New()
	selection := SelectBackend(ctx, cfg, promMetrics, logger)
	return assemble(cfg, selection, promMetrics, logger), nil
}

func assemble(cfg config.Config, selection BackendSelection, promMetrics *metrics.Metrics, logger *slog.Logger) *APIApp {
	promMetrics.SetActiveBackend(selection.Backend.Name())

	fanout := messaging.NewFanout(cfg.ServiceName, cfg.FanoutBuffer, promMetrics, logger)
	module := dropservice.NewModule(dropservice.Dependencies{
		Backend:      selection.Backend,
		Publisher:    fanout,
		Clock:        selection.Clock,
		ClaimMetrics: promMetrics,
		Logger:       logger,
	})

	opts := httpserver.Options{
		Drops:        module,
		Events:       fanout,
		Metrics:      promMetrics.Handler(),
		MigrateToken: cfg.MigrateToken,
		Version:      cfg.Version,
		Addr:         normalizeAddr(cfg.HTTPPort),
		Logger:       logger,
	}
	if selection.Repository != nil {
		opts.Migrator = selection.Repository
	}

	return &APIApp{
		server:         httpserver.New(opts),
		expirer:        module.Expirer,
		expiryInterval: cfg.DropExpiryInterval,
		postgres:       selection.Postgres,
		backend:        selection.Backend.Name(),
		logger:         logger,
	}
}

// Run serves HTTP and sweeps expired drops until ctx is cancelled or either
// loop fails.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"backend", a.backend,
		"expiry_interval", a.expiryInterval.String(),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Run(groupCtx)
	})
	group.Go(func() error {
		return a.expirer.Run(groupCtx, a.expiryInterval)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
