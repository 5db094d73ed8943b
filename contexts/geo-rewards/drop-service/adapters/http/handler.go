package httpadapter

import (
	"context"
	"log/slog"

	application "moveserver/contexts/geo-rewards/drop-service/application"
	"moveserver/contexts/geo-rewards/drop-service/application/commands"
	"moveserver/contexts/geo-rewards/drop-service/application/queries"
	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
	"moveserver/contexts/geo-rewards/drop-service/ports"
	httptransport "moveserver/contexts/geo-rewards/drop-service/transport/http"
)

// Handler is the request layer of the drop service. Every mutation publishes
// its event only after the use case has returned, never inside the write.
type Handler struct {
	CreateDrop      commands.CreateDropUseCase
	UpdateDrop      commands.UpdateDropUseCase
	DeleteDrop      commands.DeleteDropUseCase
	SubmitClaim     commands.SubmitClaimUseCase
	GetDrop         queries.GetDropUseCase
	ListDrops       queries.ListDropsUseCase
	ListDropClaims  queries.ListDropClaimsUseCase
	ListUserRewards queries.ListUserRewardsUseCase
	GetStats        queries.GetStatsUseCase
	Publisher       ports.EventPublisher
	Logger          *slog.Logger
}

// ListDropsHandler godoc
// @Summary List drops
// @Description Returns drops newest first. Status defaults to active; "all" returns every status.
// @Tags drops
// @Produce json
// @Param status query string false "active, archived, expired or all"
// @Param limit query int false "Maximum items (max 1000)"
// @Success 200 {object} httptransport.ListDropsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /api/drops [get]
func (h Handler) ListDropsHandler(ctx context.Context, status string, limit int) (httptransport.ListDropsResponse, error) {
	result, err := h.ListDrops.Execute(ctx, queries.ListDropsQuery{Status: status, Limit: limit})
	if err != nil {
		return httptransport.ListDropsResponse{}, err
	}
	return httptransport.ListDropsResponse{Items: MapDrops(result.Items)}, nil
}

// CreateDropHandler godoc
// @Summary Create a drop
// @Description Creates an active drop. Kind defaults to geo and radius_m to 25.
// @Tags drops
// @Accept json
// @Produce json
// @Param request body httptransport.CreateDropRequest true "Drop payload"
// @Success 201 {object} httptransport.DropResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /api/drops [post]
func (h Handler) CreateDropHandler(ctx context.Context, req httptransport.CreateDropRequest) (httptransport.DropResponse, error) {
	startsAt, err := parseTimePtr(req.StartsAt)
	if err != nil {
		return httptransport.DropResponse{}, domainerrors.ErrInvalidDropInput
	}
	expiresAt, err := parseTimePtr(req.ExpiresAt)
	if err != nil {
		return httptransport.DropResponse{}, domainerrors.ErrInvalidDropInput
	}

	result, err := h.CreateDrop.Execute(ctx, commands.CreateDropCommand{
		Title:        req.Title,
		Kind:         req.Kind,
		Lat:          req.Lat,
		Lng:          req.Lng,
		RadiusMeters: req.RadiusMeters,
		StartsAt:     startsAt,
		ExpiresAt:    expiresAt,
		Metadata:     req.Metadata,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		return httptransport.DropResponse{}, err
	}

	dto := MapDrop(result.Drop)
	h.publish(ctx, ports.EventDropCreated, dto.ID, dto)
	return httptransport.DropResponse{OK: true, Drop: dto}, nil
}

// GetDropHandler godoc
// @Summary Get a drop
// @Tags drops
// @Produce json
// @Param drop_id path string true "Drop id"
// @Success 200 {object} httptransport.DropResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/drops/{drop_id} [get]
func (h Handler) GetDropHandler(ctx context.Context, dropID string) (httptransport.DropResponse, error) {
	result, err := h.GetDrop.Execute(ctx, queries.GetDropQuery{DropID: dropID})
	if err != nil {
		return httptransport.DropResponse{}, err
	}
	return httptransport.DropResponse{OK: true, Drop: MapDrop(result.Drop)}, nil
}

// UpdateDropHandler godoc
// @Summary Patch a drop
// @Description Applies title, lat, lng, radius_m, status and metadata. Unknown keys are ignored.
// @Tags drops
// @Accept json
// @Produce json
// @Param drop_id path string true "Drop id"
// @Param request body httptransport.UpdateDropRequest true "Partial drop"
// @Success 200 {object} httptransport.DropResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/drops/{drop_id} [patch]
func (h Handler) UpdateDropHandler(
	ctx context.Context,
	dropID string,
	req httptransport.UpdateDropRequest,
) (httptransport.DropResponse, error) {
	result, err := h.UpdateDrop.Execute(ctx, commands.UpdateDropCommand{
		DropID: dropID,
		Patch:  entities.DropPatch(req),
	})
	if err != nil {
		return httptransport.DropResponse{}, err
	}

	dto := MapDrop(result.Drop)
	h.publish(ctx, ports.EventDropUpdated, dto.ID, dto)
	return httptransport.DropResponse{OK: true, Drop: dto}, nil
}

// DeleteDropHandler godoc
// @Summary Delete a drop
// @Description Deletes the drop and every claim on it.
// @Tags drops
// @Produce json
// @Param drop_id path string true "Drop id"
// @Success 200 {object} httptransport.DeleteDropResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/drops/{drop_id} [delete]
func (h Handler) DeleteDropHandler(ctx context.Context, dropID string) (httptransport.DeleteDropResponse, error) {
	result, err := h.DeleteDrop.Execute(ctx, commands.DeleteDropCommand{DropID: dropID})
	if err != nil {
		return httptransport.DeleteDropResponse{}, err
	}
	if !result.Deleted {
		return httptransport.DeleteDropResponse{}, domainerrors.ErrDropNotFound
	}

	h.publish(ctx, ports.EventDropDeleted, dropID, map[string]string{"id": dropID})
	return httptransport.DeleteDropResponse{OK: true, ID: dropID}, nil
}

// ListDropClaimsHandler godoc
// @Summary List claims on a drop
// @Tags claims
// @Produce json
// @Param drop_id path string true "Drop id"
// @Success 200 {object} httptransport.ListClaimsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/drops/{drop_id}/claims [get]
func (h Handler) ListDropClaimsHandler(ctx context.Context, dropID string) (httptransport.ListClaimsResponse, error) {
	result, err := h.ListDropClaims.Execute(ctx, queries.ListDropClaimsQuery{DropID: dropID})
	if err != nil {
		return httptransport.ListClaimsResponse{}, err
	}
	return httptransport.ListClaimsResponse{Items: MapClaims(result.Items)}, nil
}

// SubmitClaimHandler godoc
// @Summary Claim a drop
// @Description Claims a drop once per user. Rejects claimants outside the geofence with the remaining distance.
// @Tags claims
// @Accept json
// @Produce json
// @Param request body httptransport.SubmitClaimRequest true "Claim payload"
// @Success 200 {object} httptransport.SubmitClaimResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /api/claims [post]
func (h Handler) SubmitClaimHandler(ctx context.Context, req httptransport.SubmitClaimRequest) (httptransport.SubmitClaimResponse, error) {
	result, err := h.SubmitClaim.Execute(ctx, commands.SubmitClaimCommand{
		DropID: req.DropID,
		UserID: req.UserID,
		Lat:    req.Lat,
		Lng:    req.Lng,
		Value:  req.Value,
		TxRef:  req.TxHash,
	})
	if err != nil {
		return httptransport.SubmitClaimResponse{}, err
	}

	dto := MapClaim(result.Claim)
	h.publish(ctx, ports.EventClaimCreated, dto.ID, dto)
	return httptransport.SubmitClaimResponse{OK: true, Claim: dto}, nil
}

// ListRewardsHandler godoc
// @Summary List a user's rewards
// @Description Returns the user's claims newest first, each joined with its drop.
// @Tags claims
// @Produce json
// @Param user_id query string true "User id"
// @Success 200 {object} httptransport.ListRewardsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/claims [get]
func (h Handler) ListRewardsHandler(ctx context.Context, userID string) (httptransport.ListRewardsResponse, error) {
	result, err := h.ListUserRewards.Execute(ctx, queries.ListUserRewardsQuery{UserID: userID})
	if err != nil {
		return httptransport.ListRewardsResponse{}, err
	}

	items := make([]httptransport.RewardDTO, 0, len(result.Items))
	for _, reward := range result.Items {
		item := httptransport.RewardDTO{Claim: MapClaim(reward.Claim)}
		if reward.Drop != nil {
			drop := MapDrop(*reward.Drop)
			item.Drop = &drop
		}
		items = append(items, item)
	}
	return httptransport.ListRewardsResponse{Items: items}, nil
}

// StatsHandler godoc
// @Summary Totals and latest claim
// @Tags stats
// @Produce json
// @Success 200 {object} httptransport.StatsResponse
// @Router /api/stats [get]
func (h Handler) StatsHandler(ctx context.Context) (httptransport.StatsResponse, error) {
	stats, err := h.GetStats.Execute(ctx)
	if err != nil {
		return httptransport.StatsResponse{}, err
	}

	resp := httptransport.StatsResponse{
		Totals: httptransport.StatsTotalsDTO{
			Drops:  stats.TotalDrops,
			Claims: stats.TotalClaims,
		},
	}
	if stats.LastClaim != nil {
		last := MapClaim(*stats.LastClaim)
		resp.LastClaim = &last
	}
	return resp, nil
}

func (h Handler) publish(ctx context.Context, eventType string, entityID string, payload any) {
	if h.Publisher == nil {
		return
	}
	// The write is already committed; a caller that went away must not stop the event.
	if err := h.Publisher.Publish(context.WithoutCancel(ctx), eventType, entityID, payload); err != nil {
		application.ResolveLogger(h.Logger).Warn("event publish failed",
			"event", "http_event_publish_failed",
			"module", "geo-rewards/drop-service",
			"layer", "transport",
			"event_type", eventType,
			"entity_id", entityID,
			"error", err.Error(),
		)
	}
}
