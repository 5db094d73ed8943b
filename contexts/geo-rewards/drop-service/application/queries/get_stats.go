package queries

import (
	"context"
	"log/slog"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

type GetStatsUseCase struct {
	Claims ports.ClaimRepository
	Logger *slog.Logger
}

func (u GetStatsUseCase) Execute(ctx context.Context) (entities.Stats, error) {
	stats, err := u.Claims.Stats(ctx)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("stats query failed",
			"event", "get_stats_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Stats{}, err
	}
	return stats, nil
}
