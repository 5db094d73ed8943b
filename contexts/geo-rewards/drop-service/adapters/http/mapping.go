package httpadapter

import (
	"context"
	"time"

	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
	"moveserver/contexts/geo-rewards/drop-service/ports"
	httptransport "moveserver/contexts/geo-rewards/drop-service/transport/http"
)

// Millisecond UTC timestamps, the format observers already parse.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTime(value time.Time) string {
	return value.UTC().Format(timestampLayout)
}

func formatTimePtr(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := formatTime(*value)
	return &formatted
}

func parseTimePtr(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, *value)
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func MapDrop(drop entities.Drop) httptransport.DropDTO {
	dto := httptransport.DropDTO{
		ID:           drop.DropID,
		Title:        drop.Title,
		Kind:         drop.Kind,
		Status:       string(drop.Status),
		RadiusMeters: drop.RadiusMeters,
		StartsAt:     formatTimePtr(drop.StartsAt),
		ExpiresAt:    formatTimePtr(drop.ExpiresAt),
		Metadata:     entities.CloneMetadata(drop.Metadata),
		CreatedBy:    optionalString(drop.CreatedBy),
		ClaimedCount: drop.ClaimedCount,
		CreatedAt:    formatTime(drop.CreatedAt),
	}
	if dto.Metadata == nil {
		dto.Metadata = map[string]any{}
	}
	if drop.Location != nil {
		lat, lng := drop.Location.Lat, drop.Location.Lng
		dto.Lat = &lat
		dto.Lng = &lng
	}
	return dto
}

func MapDrops(drops []entities.Drop) []httptransport.DropDTO {
	items := make([]httptransport.DropDTO, 0, len(drops))
	for _, drop := range drops {
		items = append(items, MapDrop(drop))
	}
	return items
}

func MapClaim(claim entities.Claim) httptransport.ClaimDTO {
	dto := httptransport.ClaimDTO{
		ID:        claim.ClaimID,
		DropID:    claim.DropID,
		UserID:    claim.UserID,
		TxHash:    optionalString(claim.TxRef),
		ClaimedAt: formatTime(claim.ClaimedAt),
	}
	if claim.Value != nil {
		value := *claim.Value
		dto.Value = &value
	}
	return dto
}

func MapClaims(claims []entities.Claim) []httptransport.ClaimDTO {
	items := make([]httptransport.ClaimDTO, 0, len(claims))
	for _, claim := range claims {
		items = append(items, MapClaim(claim))
	}
	return items
}

// EventMapper converts entity payloads into wire DTOs before handing them to
// the fan-out, so observers see the same shapes as HTTP clients.
type EventMapper struct {
	Next ports.EventPublisher
}

func (m EventMapper) Publish(ctx context.Context, eventType string, entityID string, payload any) error {
	if m.Next == nil {
		return nil
	}
	switch typed := payload.(type) {
	case entities.Drop:
		payload = MapDrop(typed)
	case entities.Claim:
		payload = MapClaim(typed)
	}
	return m.Next.Publish(ctx, eventType, entityID, payload)
}
