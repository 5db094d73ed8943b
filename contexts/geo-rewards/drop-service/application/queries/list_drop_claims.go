package queries

import (
	"context"
	"log/slog"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

type ListDropClaimsQuery struct {
	DropID string
}

type ListDropClaimsResult struct {
	Items []entities.Claim
}

type ListDropClaimsUseCase struct {
	Drops  ports.DropRepository
	Claims ports.ClaimRepository
	Logger *slog.Logger
}

// Execute returns the claims of an existing drop, newest first.
func (u ListDropClaimsUseCase) Execute(ctx context.Context, query ListDropClaimsQuery) (ListDropClaimsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if _, err := u.Drops.GetDrop(ctx, query.DropID); err != nil {
		return ListDropClaimsResult{}, err
	}

	items, err := u.Claims.ListClaimsByDrop(ctx, query.DropID)
	if err != nil {
		logger.Error("list drop claims failed",
			"event", "list_drop_claims_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"drop_id", query.DropID,
			"error", err.Error(),
		)
		return ListDropClaimsResult{}, err
	}
	return ListDropClaimsResult{Items: items}, nil
}
