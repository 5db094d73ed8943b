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

type ListUserRewardsQuery struct {
	UserID string
	Limit  int
}

type ListUserRewardsResult struct {
	Items []entities.Reward
}

type ListUserRewardsUseCase struct {
	Claims ports.ClaimRepository
	Logger *slog.Logger
}

func (u ListUserRewardsUseCase) Execute(ctx context.Context, query ListUserRewardsQuery) (ListUserRewardsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	userID := strings.TrimSpace(query.UserID)
	if userID == "" {
		return ListUserRewardsResult{}, domainerrors.ErrInvalidClaimPayload
	}
	limit := query.Limit
	if limit <= 0 || limit > ports.DefaultRewardListLimit {
		limit = ports.DefaultRewardListLimit
	}

	items, err := u.Claims.ListRewardsByUser(ctx, userID, limit)
	if err != nil {
		logger.Error("list user rewards failed",
			"event", "list_user_rewards_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return ListUserRewardsResult{}, err
	}

	logger.Info("list user rewards completed",
		"event", "list_user_rewards_completed",
		"module", "geo-rewards/drop-service",
		"layer", "application",
		"user_id", userID,
		"items_count", len(items),
	)
	return ListUserRewardsResult{Items: items}, nil
}
