package entities

import (
	"math"
	"strings"
	"time"

	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
)

const (
	DefaultDropKind     = "geo"
	DefaultRadiusMeters = 25
)

type DropStatus string

const (
	DropStatusActive   DropStatus = "active"
	DropStatusArchived DropStatus = "archived"
	DropStatusExpired  DropStatus = "expired"
)

func (s DropStatus) Valid() bool {
	switch s {
	case DropStatusActive, DropStatusArchived, DropStatusExpired:
		return true
	default:
		return false
	}
}

type Location struct {
	Lat float64
	Lng float64
}

func (l Location) Valid() bool {
	return finite(l.Lat) && finite(l.Lng) &&
		l.Lat >= -90 && l.Lat <= 90 &&
		l.Lng >= -180 && l.Lng <= 180
}

type Drop struct {
	DropID       string
	Title        string
	Kind         string
	Status       DropStatus
	Location     *Location
	RadiusMeters int
	StartsAt     *time.Time
	ExpiresAt    *time.Time
	Metadata     map[string]any
	CreatedBy    string
	ClaimedCount int
	CreatedAt    time.Time
}

// Clone returns a copy that shares no mutable state with d.
func (d Drop) Clone() Drop {
	out := d
	if d.Location != nil {
		location := *d.Location
		out.Location = &location
	}
	if d.StartsAt != nil {
		startsAt := *d.StartsAt
		out.StartsAt = &startsAt
	}
	if d.ExpiresAt != nil {
		expiresAt := *d.ExpiresAt
		out.ExpiresAt = &expiresAt
	}
	out.Metadata = CloneMetadata(d.Metadata)
	return out
}

// ExpiredAt reports whether an active drop has passed its expiry.
func (d Drop) ExpiredAt(now time.Time) bool {
	return d.Status == DropStatusActive &&
		d.ExpiresAt != nil &&
		!now.UTC().Before(d.ExpiresAt.UTC())
}

type NewDropInput struct {
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

// WithDefaults fills kind and radius when the caller left them out.
func (in NewDropInput) WithDefaults() NewDropInput {
	out := in
	if strings.TrimSpace(out.Kind) == "" {
		out.Kind = DefaultDropKind
	}
	if out.RadiusMeters == nil {
		radius := DefaultRadiusMeters
		out.RadiusMeters = &radius
	}
	return out
}

// NewDrop validates input and builds an active drop. Status supplied by the
// caller is never honoured; every drop starts active.
func NewDrop(dropID string, input NewDropInput, createdAt time.Time) (Drop, error) {
	input = input.WithDefaults()
	title := strings.TrimSpace(input.Title)
	if strings.TrimSpace(dropID) == "" || title == "" {
		return Drop{}, domainerrors.ErrInvalidDropInput
	}
	if *input.RadiusMeters <= 0 {
		return Drop{}, domainerrors.ErrInvalidDropInput
	}

	location, err := resolveLocation(input.Lat, input.Lng)
	if err != nil {
		return Drop{}, err
	}
	if input.StartsAt != nil && input.ExpiresAt != nil && input.ExpiresAt.Before(*input.StartsAt) {
		return Drop{}, domainerrors.ErrInvalidDropInput
	}

	drop := Drop{
		DropID:       dropID,
		Title:        title,
		Kind:         strings.TrimSpace(input.Kind),
		Status:       DropStatusActive,
		Location:     location,
		RadiusMeters: *input.RadiusMeters,
		StartsAt:     utcPtr(input.StartsAt),
		ExpiresAt:    utcPtr(input.ExpiresAt),
		Metadata:     CloneMetadata(input.Metadata),
		CreatedBy:    strings.TrimSpace(input.CreatedBy),
		CreatedAt:    createdAt.UTC(),
	}
	if drop.Metadata == nil {
		drop.Metadata = map[string]any{}
	}
	return drop, nil
}

func resolveLocation(lat *float64, lng *float64) (*Location, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, domainerrors.ErrInvalidDropInput
	}
	location := Location{Lat: *lat, Lng: *lng}
	if !location.Valid() {
		return nil, domainerrors.ErrInvalidDropInput
	}
	return &location, nil
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}

func finite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// CloneMetadata deep-copies nested maps and slices decoded from JSON.
func CloneMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneMetadata(typed)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = cloneValue(item)
		}
		return items
	default:
		return typed
	}
}
