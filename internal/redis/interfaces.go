package redis

import "context"

// LocationIndex is the driver position and availability index.
type LocationIndex interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64, available bool) error
	SetAvailable(ctx context.Context, driverID string, available bool) error
	FindNearbyAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
}

var _ LocationIndex = (*LocationStore)(nil)
