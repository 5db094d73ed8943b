package queries

import (
	"context"
	"log/slog"
	"strings"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

type ListDropsQuery struct {
	Status string
	Limit  int
}

type ListDropsResult struct {
	Items []entities.Drop
}

type ListDropsUseCase struct {
	Drops  ports.DropRepository
	Logger *slog.Logger
}

func (u ListDropsUseCase) Execute(ctx context.Context, query ListDropsQuery) (ListDropsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	status := strings.ToLower(strings.TrimSpace(query.Status))
	if status != "" && status != ports.StatusFilterAll && !entities.DropStatus(status).Valid() {
		return ListDropsResult{}, domainerrors.ErrInvalidDropInput
	}

	items, err := u.Drops.ListDrops(ctx, ports.DropListFilter{
		Status: status,
		Limit:  query.Limit,
	})
	if err != nil {
		logger.Error("list drops failed",
			"event", "list_drops_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"status", status,
			"error", err.Error(),
		)
		return ListDropsResult{}, err
	}

	logger.Debug("list drops completed",
		"event", "list_drops_completed",
		"module", "geo-rewards/drop-service",
		"layer", "application",
		"status", status,
		"items_count", len(items),
	)
	return ListDropsResult{Items: items}, nil
}
