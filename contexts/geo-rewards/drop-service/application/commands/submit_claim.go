package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/domain/services"
	"moveserver/contexts/geo-rewards/drop-service/ports"
)

type SubmitClaimCommand struct {
	DropID string
	UserID string
	Lat    *float64
	Lng    *float64
	Value  *float64
	TxRef  string
}

type SubmitClaimResult struct {
	Claim entities.Claim
}

type SubmitClaimUseCase struct {
	Drops   ports.DropRepository
	Claims  ports.ClaimRepository
	Metrics ports.ClaimMetrics
	Logger  *slog.Logger
}

// Execute arbitrates one claim attempt in this order:
// 1) payload shape
// 2) drop lookup
// 3) geofence, so a too-far attempt never consumes the user's claim
// 4) atomic insert + claimed_count increment.
// Publishing the claim event is left to the caller.
func (u SubmitClaimUseCase) Execute(ctx context.Context, cmd SubmitClaimCommand) (SubmitClaimResult, error) {
	logger := application.ResolveLogger(u.Logger)
	dropID := strings.TrimSpace(cmd.DropID)
	userID := strings.TrimSpace(cmd.UserID)
	if dropID == "" || userID == "" {
		u.observe(ports.ClaimOutcomeBadPayload)
		return SubmitClaimResult{}, domainerrors.ErrInvalidClaimPayload
	}

	drop, err := u.Drops.GetDrop(ctx, dropID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrDropNotFound) {
			u.observe(ports.ClaimOutcomeDropNotFound)
			logger.Info("claim rejected for unknown drop",
				"event", "submit_claim_drop_not_found",
				"module", "geo-rewards/drop-service",
				"layer", "application",
				"drop_id", dropID,
				"user_id", userID,
			)
			return SubmitClaimResult{}, err
		}
		u.observe(ports.ClaimOutcomeError)
		logger.Error("claim failed loading drop",
			"event", "submit_claim_get_drop_failed",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"drop_id", dropID,
			"error", err.Error(),
		)
		return SubmitClaimResult{}, err
	}

	var claimant *entities.Location
	if cmd.Lat != nil && cmd.Lng != nil {
		claimant = &entities.Location{Lat: *cmd.Lat, Lng: *cmd.Lng}
	}
	radius := drop.RadiusMeters
	verdict := services.EvaluateGeofence(claimant, drop.Location, &radius)
	if !verdict.Admitted {
		u.observe(ports.ClaimOutcomeTooFar)
		logger.Info("claim rejected outside geofence",
			"event", "submit_claim_too_far",
			"module", "geo-rewards/drop-service",
			"layer", "application",
			"drop_id", dropID,
			"user_id", userID,
			"shortfall_meters", verdict.ShortfallMeters,
		)
		return SubmitClaimResult{}, &domainerrors.TooFarError{ShortfallMeters: verdict.ShortfallMeters}
	}

	claim, err := u.Claims.TryInsertClaimAndIncrement(ctx, entities.NewClaimInput{
		DropID: dropID,
		UserID: userID,
		Value:  cmd.Value,
		TxRef:  cmd.TxRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyClaimed):
			u.observe(ports.ClaimOutcomeAlreadyClaimed)
			logger.Info("claim rejected as duplicate",
				"event", "submit_claim_already_claimed",
				"module", "geo-rewards/drop-service",
				"layer", "application",
				"drop_id", dropID,
				"user_id", userID,
			)
		case errors.Is(err, domainerrors.ErrDropNotFound):
			// Drop was deleted between lookup and insert.
			u.observe(ports.ClaimOutcomeDropNotFound)
		case errors.Is(err, domainerrors.ErrInvalidClaimPayload):
			u.observe(ports.ClaimOutcomeBadPayload)
		default:
			u.observe(ports.ClaimOutcomeError)
			logger.Error("claim failed on write",
				"event", "submit_claim_write_failed",
				"module", "geo-rewards/drop-service",
				"layer", "application",
				"drop_id", dropID,
				"user_id", userID,
				"error", err.Error(),
			)
		}
		return SubmitClaimResult{}, err
	}

	u.observe(ports.ClaimOutcomeCreated)
	logger.Info("claim created",
		"event", "claim_created",
		"module", "geo-rewards/drop-service",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"drop_id", claim.DropID,
		"user_id", claim.UserID,
	)
	return SubmitClaimResult{Claim: claim}, nil
}

func (u SubmitClaimUseCase) observe(outcome string) {
	if u.Metrics != nil {
		u.Metrics.ObserveClaimOutcome(outcome)
	}
}
