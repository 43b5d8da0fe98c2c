package geo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// lngForKm returns the longitude delta covering km kilometres along the equator.
func lngForKm(km float64) float64 {
	return km / earthRadiusKm * 180 / math.Pi
}

func TestDistanceZero(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(0, 0, 0, 0))
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{12.9716, 77.5946, 13.0827, 80.2707}, // Bengaluru - Chennai
		{28.7041, 77.1025, 19.0760, 72.8777}, // Delhi - Mumbai
		{-33.8688, 151.2093, 51.5074, -0.1278},
		{0.5, 0.5, -0.5, -0.5},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1], p[2], p[3])
		ba := DistanceKm(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Bengaluru to Chennai, roughly 290 km great-circle.
	d := DistanceKm(12.9716, 77.5946, 13.0827, 80.2707)
	assert.InDelta(t, 290, d, 5)
}

func TestDeliveryRangeBoundary(t *testing.T) {
	just := DistanceKm(0, 0, 0, lngForKm(49.9999))
	over := DistanceKm(0, 0, 0, lngForKm(50.0001))

	assert.True(t, WithinDeliveryRange(just), "49.9999 km must be accepted")
	assert.False(t, WithinDeliveryRange(over), "50.0001 km must be rejected")
}

func TestEstimateMinutes(t *testing.T) {
	cases := []struct {
		km   float64
		want int
	}{
		{0, 0},
		{20, 30},   // exactly on a minute boundary
		{20.1, 31}, // ceiling past the boundary
		{40, 60},
		{50, 75},
		{0.1, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EstimateMinutes(c.km), "distance %v", c.km)
	}
}

func TestEstimatePickupTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	got := EstimatePickupTime(now, 20)
	assert.Equal(t, now.Add(30*time.Minute), got)
}
