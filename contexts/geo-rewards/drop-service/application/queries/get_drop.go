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

type GetDropQuery struct {
	DropID string
}

type GetDropResult struct {
	Drop entities.Drop
}

type GetDropUseCase struct {
	Drops  ports.DropRepository
	Logger *slog.Logger
}

func (u GetDropUseCase) Execute(ctx context.Context, query GetDropQuery) (GetDropResult, error) {
	if strings.TrimSpace(query.DropID) == "" {
		return GetDropResult{}, domainerrors.ErrDropNotFound
	}
	drop, err := u.Drops.GetDrop(ctx, query.DropID)
	if err != nil {
		application.ResolveLogger(u.Logger).Debug("get drop failed",
			"event", "get_drop_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"drop_id", query.DropID,
			"error", err.Error(),
		)
		return GetDropResult{}, err
	}
	return GetDropResult{Drop: drop}, nil
}
