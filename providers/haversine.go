package providers

import (
	"context"
	"math"
)

const earthRadiusKM = 6371.0

// HaversineProvider computes the great-circle distance in-process. It is
// the default provider; no network round trip, always deterministic.
type HaversineProvider struct{}

func NewHaversineProvider() *HaversineProvider {
	return &HaversineProvider{}
}

func (p *HaversineProvider) DistanceKM(_ context.Context, origin, destination Coordinates) (float64, error) {
	lat1 := origin.Latitude * math.Pi / 180
	lat2 := destination.Latitude * math.Pi / 180
	dLat := (destination.Latitude - origin.Latitude) * math.Pi / 180
	dLon := (destination.Longitude - origin.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c, nil
}
