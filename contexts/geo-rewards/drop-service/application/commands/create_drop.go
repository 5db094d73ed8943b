package commands

import (
	"context"
	"log/slog"
	"time"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

type CreateDropCommand struct {
	Title        string
	Kind         string
	Lat          *float64
	Lng          *float64
	RadiusMeters *int
	StartsAt     *time.Time
	ExpiresAt    *time.Time
	Metadata     map[string]any
	CreatedBy    string
}

type CreateDropResult struct {
	Drop entities.Drop
}

type CreateDropUseCase struct {
	Drops  ports.DropRepository
	Logger *slog.Logger
}

func (u CreateDropUseCase) Execute(ctx context.Context, cmd CreateDropCommand) (CreateDropResult, error) {
	logger := application.ResolveLogger(u.Logger)
	input := entities.NewDropInput{
		Title:        cmd.Title,
		Kind:         cmd.Kind,
		Lat:          cmd.Lat,
		Lng:          cmd.Lng,
		RadiusMeters: cmd.RadiusMeters,
		StartsAt:     cmd.StartsAt,
		ExpiresAt:    cmd.ExpiresAt,
		Metadata:     cmd.Metadata,
		CreatedBy:    cmd.CreatedBy,
	}.WithDefaults()

	drop, err := u.Drops.InsertDrop(ctx, input)
	if err != nil {
		logger.Warn("create drop rejected",
			"event", "create_drop_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"kind", input.Kind,
			"error", err.Error(),
		)
		return CreateDropResult{}, err
	}

	logger.Info("drop created",
		"event", "drop_created",
		"module", "geo-rewards/drop-service",
		"layer", "application",
		"drop_id", drop.DropID,
		"kind", drop.Kind,
		"radius_m", drop.RadiusMeters,
	)
	return CreateDropResult{Drop: drop}, nil
}
