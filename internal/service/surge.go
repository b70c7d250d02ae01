package service

import (
	"context"

	"ridehail/internal/geo"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// SurgePricer returns the surge multiplier for a pickup location.
type SurgePricer interface {
	GetMultiplier(ctx context.Context, lat, lng float64) float64
}

// StaticSurge always returns the same multiplier.
type StaticSurge float64

// GetMultiplier returns the configured multiplier, never below 1.0.
func (s StaticSurge) GetMultiplier(ctx context.Context, lat, lng float64) float64 {
	if s < 1.0 {
		return 1.0
	}
	return float64(s)
}

// DriverLocator finds available drivers around a point.
type DriverLocator interface {
	NearbyAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error)
}

// SurgeService calculates surge pricing based on supply and demand.
type SurgeService struct {
	drivers DriverLocator
	rides   repository.RideStore
	floor   float64
	config  SurgeConfig
}

// NewSurgeService creates a new SurgeService. floor is the lowest multiplier it returns.
func NewSurgeService(drivers DriverLocator, rides repository.RideStore, floor float64) *SurgeService {
	if floor < 1.0 {
		floor = 1.0
	}
	return &SurgeService{
		drivers: drivers,
		rides:   rides,
		floor:   floor,
		config:  DefaultSurgeConfig(),
	}
}

// SurgeConfig contains surge pricing configuration.
type SurgeConfig struct {
	RadiusKm       float64 // Radius to check for supply/demand
	LowSurgeRatio  float64 // Demand/supply ratio for 1.25x surge
	MedSurgeRatio  float64 // Demand/supply ratio for 1.5x surge
	HighSurgeRatio float64 // Demand/supply ratio for 2.0x surge
	MaxSurge       float64 // Maximum surge multiplier
	MaxScan        int     // Open requests inspected per calculation
}

// DefaultSurgeConfig returns the default surge configuration.
func DefaultSurgeConfig() SurgeConfig {
	return SurgeConfig{
		RadiusKm:       5.0,
		LowSurgeRatio:  1.2,
		MedSurgeRatio:  1.5,
		HighSurgeRatio: 2.0,
		MaxSurge:       2.0,
		MaxScan:        500,
	}
}

// GetMultiplier calculates the surge multiplier for a given location.
func (s *SurgeService) GetMultiplier(ctx context.Context, lat, lng float64) float64 {
	supply := s.countDriversInArea(ctx, lat, lng)
	demand := s.countOpenRequestsInArea(ctx, lat, lng)

	multiplier := s.calculateSurgeMultiplier(supply, demand)
	if multiplier < s.floor {
		return s.floor
	}
	return multiplier
}

// countDriversInArea returns the number of available drivers within radius.
func (s *SurgeService) countDriversInArea(ctx context.Context, lat, lng float64) int {
	drivers, err := s.drivers.NearbyAvailable(ctx, lat, lng, s.config.RadiusKm)
	if err != nil {
		// Fail open: pretend supply is plentiful.
		return 10
	}
	return len(drivers)
}

// countOpenRequestsInArea counts unclaimed ride requests whose pickup is within radius.
func (s *SurgeService) countOpenRequestsInArea(ctx context.Context, lat, lng float64) int {
	rides, err := s.rides.ListAvailable(ctx, repository.Page{Limit: s.config.MaxScan})
	if err != nil {
		return 0
	}

	center := geo.Point{Lat: lat, Lng: lng}
	count := 0
	for _, ride := range rides {
		if geo.DistanceKm(center, geo.Point{Lat: ride.PickupLat, Lng: ride.PickupLng}) <= s.config.RadiusKm {
			count++
		}
	}
	return count
}

// calculateSurgeMultiplier determines the multiplier based on supply/demand ratio.
func (s *SurgeService) calculateSurgeMultiplier(supply, demand int) float64 {
	if supply == 0 {
		if demand > 0 {
			return s.config.MaxSurge
		}
		return 1.0
	}

	ratio := float64(demand) / float64(supply)

	switch {
	case ratio >= s.config.HighSurgeRatio:
		return s.config.MaxSurge
	case ratio >= s.config.MedSurgeRatio:
		return 1.5
	case ratio >= s.config.LowSurgeRatio:
		return 1.25
	default:
		return 1.0
	}
}
