package geo

import (
	"math"
	"time"
)

const (
	earthRadiusKm = 6371

	// MaxDeliveryKm is the service radius, orders beyond it are rejected.
	MaxDeliveryKm = 50.0

	// avgSpeedKmh is the assumed courier speed for the delivery estimate.
	avgSpeedKmh = 40.0
)

// DistanceKm returns the great-circle distance between two points
// using the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// WithinDeliveryRange reports whether the distance is inside the service radius.
func WithinDeliveryRange(distanceKm float64) bool {
	return distanceKm <= MaxDeliveryKm
}

// EstimateMinutes converts a distance into whole travel minutes at the
// assumed average speed, rounding up.
func EstimateMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm / avgSpeedKmh * 60))
}

// EstimatePickupTime returns now plus the travel estimate for the distance.
func EstimatePickupTime(now time.Time, distanceKm float64) time.Time {
	return now.Add(time.Duration(EstimateMinutes(distanceKm)) * time.Minute)
}
