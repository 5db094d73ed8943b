package services

import (
	"math"

	"moveserver/contexts/geo-rewards/drop-service/domain/entities"
)

const EarthRadiusMeters = 6371000.0

type GeofenceResult struct {
	Admitted        bool
	ShortfallMeters int
}

// DistanceMeters is the haversine great-circle distance between two points.
func DistanceMeters(a entities.Location, b entities.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// EvaluateGeofence admits the claimant unless every input is known and the
// claimant sits outside the radius. Missing coordinates or radius skip the check.
func EvaluateGeofence(claimant *entities.Location, center *entities.Location, radiusMeters *int) GeofenceResult {
	if claimant == nil || center == nil || radiusMeters == nil {
		return GeofenceResult{Admitted: true}
	}

	distance := DistanceMeters(*claimant, *center)
	radius := float64(*radiusMeters)
	if distance <= radius {
		return GeofenceResult{Admitted: true}
	}

	shortfall := int(math.Round(distance - radius))
	if shortfall < 0 {
		shortfall = 0
	}
	return GeofenceResult{ShortfallMeters: shortfall}
}
