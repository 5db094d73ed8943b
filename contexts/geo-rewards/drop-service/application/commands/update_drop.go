package commands

import (
	"context"
	"log/slog"
	"strings"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

type UpdateDropCommand struct {
	DropID string
	Patch  entities.DropPatch
}

type UpdateDropResult struct {
	Drop entities.Drop
}

type UpdateDropUseCase struct {
	Drops  ports.DropRepository
	Logger *slog.Logger
}

func (u UpdateDropUseCase) Execute(ctx context.Context, cmd UpdateDropCommand) (UpdateDropResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.DropID) == "" {
		return UpdateDropResult{}, domainerrors.ErrDropNotFound
	}

	drop, err := u.Drops.UpdateDrop(ctx, cmd.DropID, cmd.Patch)
	if err != nil {
		logger.Warn("update drop failed",
			"event", "update_drop_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"drop_id", cmd.DropID,
			"error", err.Error(),
		)
		return UpdateDropResult{}, err
	}

	logger.Info("drop updated",
		"event", "drop_updated",
		"module", "geo-rewards/drop-service",
		"layer", "application",
		"drop_id", drop.DropID,
		"status", drop.Status,
	)
	return UpdateDropResult{Drop: drop}, nil
}
