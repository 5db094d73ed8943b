package workers

import (
	"context"
	"log/slog"
	"time"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

// DropExpirer sweeps active drops that crossed expires_at and announces each
// transition as a drop_updated event.
type DropExpirer struct {
	Drops     ports.DropRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (e DropExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}

	expired, err := e.Drops.ExpireDrops(ctx, now)
	if err != nil {
		logger.Error("drop expiry sweep failed",
			"event", "drop_expiry_failed",
			"module", "geo-rewards/drop-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, drop := range expired {
		if e.Publisher == nil {
			break
		}
		if err := e.Publisher.Publish(ctx, ports.EventDropUpdated, drop.DropID, drop); err != nil {
			logger.Warn("drop expiry event not published",
				"event", "drop_expiry_publish_failed",
				"module", "geo-rewards/drop-service",
				"layer", "worker",
				"drop_id", drop.DropID,
				"error", err.Error(),
			)
		}
	}
	if len(expired) > 0 {
		logger.Info("drop expiry sweep completed",
			"event", "drop_expiry_completed",
			"module", "geo-rewards/drop-service",
			"layer", "worker",
			"expired_count", len(expired),
		)
	}
	return nil
}

// Run sweeps on every tick until ctx is cancelled. Sweep errors are logged
// and retried on the next tick.
func (e DropExpirer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = e.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
