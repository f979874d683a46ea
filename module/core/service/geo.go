package service

import (
	"math"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance between a and b in meters. NaN
// coordinates yield NaN.
func Distance(a, b domain.GeoPoint) float64 {
	return haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func ValidCoordinate(p domain.GeoPoint) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
