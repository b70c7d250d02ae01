package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	driverLocationKey   = "drivers:locations"
	availableDriversKey = "drivers:available"
)

// DriverLocation is a driver position returned by a nearby lookup.
type DriverLocation struct {
	DriverID   string
	Lat        float64
	Lng        float64
	DistanceKm float64
}

// LocationStore mirrors driver positions and availability into Redis so
// nearby drivers can be found with a GEO query. The database stays the
// source of truth; every write here is best-effort.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation records the driver's position and availability in one round trip.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64, available bool) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
			Name:      driverID,
			Longitude: lng,
			Latitude:  lat,
		})
		setAvailable(ctx, pipe, driverID, available)
		return nil
	})
	return err
}

// SetAvailable adds or removes the driver from the available set.
func (s *LocationStore) SetAvailable(ctx context.Context, driverID string, available bool) error {
	return setAvailable(ctx, s.client, driverID, available).Err()
}

func setAvailable(ctx context.Context, c redis.Cmdable, driverID string, available bool) *redis.IntCmd {
	if available {
		return c.SAdd(ctx, availableDriversKey, driverID)
	}
	return c.SRem(ctx, availableDriversKey, driverID)
}

// FindNearbyAvailable returns available drivers within radiusKm, closest first.
func (s *LocationStore) FindNearbyAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error) {
	results, err := s.client.GeoRadius(ctx, driverLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil || len(results) == 0 {
		return nil, err
	}

	members := make([]any, len(results))
	for i, r := range results {
		members[i] = r.Name
	}
	flags, err := s.client.SMIsMember(ctx, availableDriversKey, members...).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]DriverLocation, 0, len(results))
	for i, r := range results {
		if !flags[i] {
			continue
		}
		locations = append(locations, DriverLocation{
			DriverID:   r.Name,
			Lat:        r.Latitude,
			Lng:        r.Longitude,
			DistanceKm: r.Dist,
		})
	}
	return locations, nil
}
