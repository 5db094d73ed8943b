package entities

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	domainerrors "moveserver/contexts/geo-rewards/drop-service/domain/errors"
)

// DropPatch is a partial update keyed by wire field name.
// Recognized keys: title, lat, lng, radius_m (alias radius), status, metadata.
type DropPatch map[string]any

// ApplyDropPatch returns the drop with the patch applied. Unknown keys are
// ignored and numeric fields that fail to parse keep their prior value.
func ApplyDropPatch(current Drop, patch DropPatch) (Drop, error) {
	next := current.Clone()

	if raw, ok := patch["title"]; ok {
		title, isString := raw.(string)
		title = strings.TrimSpace(title)
		if !isString || title == "" {
			return Drop{}, domainerrors.ErrInvalidDropInput
		}
		next.Title = title
	}

	var lat, lng *float64
	if next.Location != nil {
		lat = &next.Location.Lat
		lng = &next.Location.Lng
	}
	if raw, ok := patch["lat"]; ok {
		lat = patchCoordinate(raw, lat, 90)
	}
	if raw, ok := patch["lng"]; ok {
		lng = patchCoordinate(raw, lng, 180)
	}
	location, err := resolveLocation(lat, lng)
	if err != nil {
		return Drop{}, err
	}
	next.Location = location

	radiusRaw, ok := patch["radius_m"]
	if !ok {
		radiusRaw, ok = patch["radius"]
	}
	if ok {
		if value, parsed := ParseNumber(radiusRaw); parsed && math.Round(value) > 0 && value <= math.MaxInt32 {
			next.RadiusMeters = int(math.Round(value))
		}
	}

	if raw, ok := patch["status"]; ok {
		status, isString := raw.(string)
		candidate := DropStatus(strings.ToLower(strings.TrimSpace(status)))
		if !isString || !candidate.Valid() {
			return Drop{}, domainerrors.ErrInvalidDropInput
		}
		next.Status = candidate
	}

	if raw, ok := patch["metadata"]; ok {
		switch typed := raw.(type) {
		case nil:
			next.Metadata = map[string]any{}
		case map[string]any:
			next.Metadata = CloneMetadata(typed)
		default:
			return Drop{}, domainerrors.ErrInvalidDropInput
		}
	}

	return next, nil
}

// patchCoordinate resolves one coordinate: explicit null clears it, a valid
// number within bounds replaces it, anything else keeps the prior value.
func patchCoordinate(raw any, prior *float64, bound float64) *float64 {
	if raw == nil {
		return nil
	}
	value, ok := ParseNumber(raw)
	if !ok || value < -bound || value > bound {
		return prior
	}
	return &value
}

// ParseNumber accepts JSON numbers and numeric strings.
func ParseNumber(raw any) (float64, bool) {
	var value float64
	switch typed := raw.(type) {
	case float64:
		value = typed
	case float32:
		value = float64(typed)
	case int:
		value = float64(typed)
	case int32:
		value = float64(typed)
	case int64:
		value = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		value = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		value = parsed
	default:
		return 0, false
	}
	if !finite(value) {
		return 0, false
	}
	return value, true
}
