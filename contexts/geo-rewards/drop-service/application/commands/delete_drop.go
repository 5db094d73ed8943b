package commands

import (
	"context"
	"log/slog"
	"strings"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

type DeleteDropCommand struct {
	DropID string
}

type DeleteDropResult struct {
	DropID  string
	Deleted bool
}

type DeleteDropUseCase struct {
	Drops  ports.DropRepository
	Logger *slog.Logger
}

// Execute removes the drop and its claims. Deleted is false when no drop
// existed under the id.
func (u DeleteDropUseCase) Execute(ctx context.Context, cmd DeleteDropCommand) (DeleteDropResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.DropID) == "" {
		return DeleteDropResult{DropID: cmd.DropID}, nil
	}

	deleted, err := u.Drops.DeleteDrop(ctx, cmd.DropID)
	if err != nil {
		logger.Error("delete drop failed",
			"event", "delete_drop_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"drop_id", cmd.DropID,
			"error", err.Error(),
		)
		return DeleteDropResult{}, err
	}
	if !deleted {
		logger.Info("delete drop found nothing",
			"event", "delete_drop_missing",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"drop_id", cmd.DropID,
		)
		return DeleteDropResult{DropID: cmd.DropID}, nil
	}

	logger.Info("drop deleted",
		"event", "drop_deleted",
		"module", "geo-rewards/drop-service",
		"layer", "application",
		"drop_id", cmd.DropID,
	)
	return DeleteDropResult{DropID: cmd.DropID, Deleted: true}, nil
}
