package providers

import "context"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// DistanceProvider resolves the distance in kilometers between two points.
// Implementations must be deterministic for identical inputs so shipping
// quotes can be recomputed freely during checkout.
type DistanceProvider interface {
	DistanceKM(ctx context.Context, origin, destination Coordinates) (float64, error)
}
