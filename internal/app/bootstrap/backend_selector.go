package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"moveserver/contexts/geo-rewards/drop-service/adapters/failover"
	"moveserver/contexts/geo-rewards/drop-service/adapters/memory"
	postgresadapter "moveserver/contexts/geo-rewards/drop-service/adapters/postgres"
	"moveserver/contexts/geo-rewards/drop-service/ports"
	"moveserver/internal/platform/config"
	"moveserver/internal/platform/db"
)

type connectFunc func(ctx context.Context, dsn string, timeout time.Duration, logger *slog.Logger) (*db.Postgres, error)

// BackendSelection is the persistence choice for the whole process lifetime.
type BackendSelection struct {
	Backend ports.Backend
	Clock   ports.Clock
	// Postgres and Repository are nil when the volatile store was selected.
	Postgres   *db.Postgres
	Repository *postgresadapter.Repository
	// Degraded is set when a durable store was configured but could not be used.
	Degraded bool
}

// SelectBackend tries the durable store once and otherwise settles on the
// volatile store. The choice never changes after startup.
func SelectBackend(
	ctx context.Context,
	cfg config.Config,
	recorder failover.FallbackRecorder,
	logger *slog.Logger,
) BackendSelection {
	return selectBackend(ctx, cfg, db.Connect, recorder, logger)
}

func selectBackend(
	ctx context.Context,
	cfg config.Config,
	connect connectFunc,
	recorder failover.FallbackRecorder,
	logger *slog.Logger,
) BackendSelection {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Info("no durable store configured, using volatile store",
			"event", "backend_selected",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"backend", memory.BackendName,
		)
		return volatileSelection(logger, false)
	}

	pg, err := connect(ctx, cfg.PostgresDSN, cfg.DBConnectTimeout, logger)
	if err != nil {
		return degrade(logger, "connect", err)
	}

	repo := postgresadapter.NewRepository(pg.DB, logger).WithTxRetries(cfg.ClaimTxRetries)
	if cfg.AutoMigrate {
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return degrade(logger, "ensure_schema", err)
		}
	}

	var backend ports.Backend = repo
	if cfg.AllowOperationFallback {
		backend = failover.NewBackend(repo, memory.NewStore(logger), true, recorder, logger)
	}

	logger.Info("durable store selected",
		"event", "backend_selected",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"backend", postgresadapter.BackendName,
		"operation_fallback", cfg.AllowOperationFallback,
		"auto_migrate", cfg.AutoMigrate,
	)
	return BackendSelection{
		Backend:    backend,
		Clock:      postgresadapter.SystemClock{},
		Postgres:   pg,
		Repository: repo,
	}
}

func degrade(logger *slog.Logger, stage string, cause error) BackendSelection {
	logger.Warn("durable store unavailable, falling back to volatile store for this process",
		"event", "backend_degraded",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"stage", stage,
		"backend", memory.BackendName,
		"error", cause.Error(),
	)
	return volatileSelection(logger, true)
}

func volatileSelection(logger *slog.Logger, degraded bool) BackendSelection {
	store := memory.NewStore(logger)
	return BackendSelection{
		Backend:  store,
		Clock:    store,
		Degraded: degraded,
	}
}
