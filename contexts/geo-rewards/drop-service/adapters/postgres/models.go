package postgresadapter

import (
	"time"

	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
)

type dropModel struct {
	ID           string         `gorm:"column:id;primaryKey"`
	Title        string         `gorm:"column:title"`
	Kind         string         `gorm:"column:kind"`
	Status       string         `gorm:"column:status"`
	Lat          *float64       `gorm:"column:lat"`
	Lng          *float64       `gorm:"column:lng"`
	RadiusMeters int            `gorm:"column:radius_m"`
	StartsAt     *time.Time     `gorm:"column:starts_at"`
	ExpiresAt    *time.Time     `gorm:"column:expires_at"`
	Metadata     map[string]any `gorm:"column:metadata;serializer:json"`
	CreatedBy    *string        `gorm:"column:created_by"`
	ClaimedCount int            `gorm:"column:claimed_count"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
}

func (dropModel) TableName() string {
	return "drops"
}

func dropModelFromEntity(drop entities.Drop) dropModel {
	row := dropModel{
		ID:           drop.DropID,
		Title:        drop.Title,
		Kind:         drop.Kind,
		Status:       string(drop.Status),
		RadiusMeters: drop.RadiusMeters,
		StartsAt:     drop.StartsAt,
		ExpiresAt:    drop.ExpiresAt,
		Metadata:     drop.Metadata,
		ClaimedCount: drop.ClaimedCount,
		CreatedAt:    drop.CreatedAt.UTC(),
	}
	if row.Metadata == nil {
		row.Metadata = map[string]any{}
	}
	if drop.Location != nil {
		lat, lng := drop.Location.Lat, drop.Location.Lng
		row.Lat = &lat
		row.Lng = &lng
	}
	if drop.CreatedBy != "" {
		createdBy := drop.CreatedBy
		row.CreatedBy = &createdBy
	}
	return row
}

func (m dropModel) toEntity() entities.Drop {
	drop := entities.Drop{
		DropID:       m.ID,
		Title:        m.Title,
		Kind:         m.Kind,
		Status:       entities.DropStatus(m.Status),
		RadiusMeters: m.RadiusMeters,
		StartsAt:     utcPtr(m.StartsAt),
		ExpiresAt:    utcPtr(m.ExpiresAt),
		Metadata:     entities.CloneMetadata(m.Metadata),
		ClaimedCount: m.ClaimedCount,
		CreatedAt:    m.CreatedAt.UTC(),
	}
	if drop.Metadata == nil {
		drop.Metadata = map[string]any{}
	}
	if m.Lat != nil && m.Lng != nil {
		drop.Location = &entities.Location{Lat: *m.Lat, Lng: *m.Lng}
	}
	if m.CreatedBy != nil {
		drop.CreatedBy = *m.CreatedBy
	}
	return drop
}

func dropEntities(rows []dropModel) []entities.Drop {
	items := make([]entities.Drop, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type claimModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	DropID    string    `gorm:"column:drop_id"`
	UserID    string    `gorm:"column:user_id"`
	Value     *float64  `gorm:"column:value"`
	TxHash    *string   `gorm:"column:tx_hash"`
	ClaimedAt time.Time `gorm:"column:claimed_at"`
}

func (claimModel) TableName() string {
	return "claims"
}

func claimModelFromEntity(claim entities.Claim) claimModel {
	row := claimModel{
		ID:        claim.ClaimID,
		DropID:    claim.DropID,
		UserID:    claim.UserID,
		Value:     claim.Value,
		ClaimedAt: claim.ClaimedAt.UTC(),
	}
	if claim.TxRef != "" {
		txHash := claim.TxRef
		row.TxHash = &txHash
	}
	return row
}

func (m claimModel) toEntity() entities.Claim {
	claim := entities.Claim{
		ClaimID:   m.ID,
		DropID:    m.DropID,
		UserID:    m.UserID,
		ClaimedAt: m.ClaimedAt.UTC(),
	}
	if m.Value != nil {
		value := *m.Value
		claim.Value = &value
	}
	if m.TxHash != nil {
		claim.TxRef = *m.TxHash
	}
	return claim
}

func claimEntities(rows []claimModel) []entities.Claim {
	items := make([]entities.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
