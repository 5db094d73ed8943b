package httptransport

import (
	"bytes"
	"encoding/json"
	"math"

	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
)

type DropDTO struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Kind         string         `json:"kind"`
	Status       string         `json:"status"`
	Lat          *float64       `json:"lat"`
	Lng          *float64       `json:"lng"`
	RadiusMeters int            `json:"radius_m"`
	StartsAt     *string        `json:"starts_at"`
	ExpiresAt    *string        `json:"expires_at"`
	Metadata     map[string]any `json:"metadata"`
	CreatedBy    *string        `json:"created_by"`
	ClaimedCount int            `json:"claimed_count"`
	CreatedAt    string         `json:"created_at"`
}

type ClaimDTO struct {
	ID        string   `json:"id"`
	DropID    string   `json:"drop_id"`
	UserID    string   `json:"user_id"`
	Value     *float64 `json:"value"`
	TxHash    *string  `json:"tx_hash"`
	ClaimedAt string   `json:"claimed_at"`
}

type CreateDropRequest struct {
	Title        string         `json:"title"`
	Kind         string         `json:"kind,omitempty"`
	Lat          *float64       `json:"lat,omitempty"`
	Lng          *float64       `json:"lng,omitempty"`
	RadiusMeters *int           `json:"radius_m,omitempty"`
	StartsAt     *string        `json:"starts_at,omitempty"`
	ExpiresAt    *string        `json:"expires_at,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty"`
}

// UnmarshalJSON accepts lat, lng and radius_m as JSON numbers or numeric
// strings. Values that do not parse are treated as absent.
func (r *CreateDropRequest) UnmarshalJSON(data []byte) error {
	type plain CreateDropRequest
	var body struct {
		plain
		Lat          any `json:"lat"`
		Lng          any `json:"lng"`
		RadiusMeters any `json:"radius_m"`
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		return err
	}

	*r = CreateDropRequest(body.plain)
	r.Lat = lenientFloat(body.Lat)
	r.Lng = lenientFloat(body.Lng)
	r.RadiusMeters = nil
	if value, ok := entities.ParseNumber(body.RadiusMeters); ok && math.Abs(value) <= math.MaxInt32 {
		radius := int(math.Round(value))
		r.RadiusMeters = &radius
	}
	return nil
}

func lenientFloat(raw any) *float64 {
	value, ok := entities.ParseNumber(raw)
	if !ok {
		return nil
	}
	return &value
}

// UpdateDropRequest is a partial patch; keys absent from the body are left unchanged.
type UpdateDropRequest map[string]any

type DropResponse struct {
	OK   bool    `json:"ok"`
	Drop DropDTO `json:"drop"`
}

type ListDropsResponse struct {
	Items []DropDTO `json:"items"`
}

type DeleteDropResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type SubmitClaimRequest struct {
	DropID string   `json:"drop_id"`
	UserID string   `json:"user_id"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	Value  *float64 `json:"value,omitempty"`
	TxHash string   `json:"tx_hash,omitempty"`
}

type SubmitClaimResponse struct {
	OK    bool     `json:"ok"`
	Claim ClaimDTO `json:"claim"`
}

type ListClaimsResponse struct {
	Items []ClaimDTO `json:"items"`
}

type RewardDTO struct {
	Claim ClaimDTO `json:"claim"`
	Drop  *DropDTO `json:"drop"`
}

type ListRewardsResponse struct {
	Items []RewardDTO `json:"items"`
}

type StatsTotalsDTO struct {
	Drops  int `json:"drops"`
	Claims int `json:"claims"`
}

type StatsResponse struct {
	Totals    StatsTotalsDTO `json:"totals"`
	LastClaim *ClaimDTO      `json:"lastClaim"`
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
}

type MigrateResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	OK              bool   `json:"ok"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	ShortfallMeters *int   `json:"shortfall_meters,omitempty"`
}
