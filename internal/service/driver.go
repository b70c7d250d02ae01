package service

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/identity"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

const (
	defaultNearbyRadiusKm = 5.0
	maxNearbyRadiusKm     = 50.0
)

// DriverService handles driver location pings and nearby-driver lookups.
type DriverService struct {
	drivers repository.DriverRepository
	rides   repository.RideStore
	index   redis.LocationIndex
	log     logrus.FieldLogger
}

// NewDriverService creates a new DriverService. index may be nil when Redis is disabled.
func NewDriverService(
	drivers repository.DriverRepository,
	rides repository.RideStore,
	index redis.LocationIndex,
	log logrus.FieldLogger,
) *DriverService {
	return &DriverService{
		drivers: drivers,
		rides:   rides,
		index:   index,
		log:     log,
	}
}

// UpdateLocationRequest contains a position ping. RideID is optional.
type UpdateLocationRequest struct {
	Lat    float64
	Lng    float64
	RideID string
}

// UpdateLocation records the calling driver's position. When RideID is set the
// ride must be ONGOING and assigned to the caller, and its updated_at is bumped.
func (s *DriverService) UpdateLocation(ctx context.Context, caller identity.Identity, req UpdateLocationRequest) (*domain.Driver, error) {
	d, err := requireDriver(caller)
	if err != nil {
		return nil, err
	}
	if !geo.ValidLatitude(req.Lat) || !geo.ValidLongitude(req.Lng) {
		return nil, validationError("invalid location")
	}

	if req.RideID != "" {
		ride, err := s.rides.GetByID(ctx, req.RideID)
		if err != nil {
			return nil, err
		}
		if !ride.IsAssignedTo(d.ID) {
			return nil, forbidden("not the assigned driver of this ride")
		}
		if ride.Status != domain.RideStatusOngoing {
			return nil, ErrRideNotOngoing
		}
	}

	now := time.Now()
	lat := domain.RoundCoordinate(req.Lat)
	lng := domain.RoundCoordinate(req.Lng)
	if err := s.drivers.UpdateLocation(ctx, d.ID, lat, lng, now); err != nil {
		return nil, err
	}
	if req.RideID != "" {
		if err := s.rides.Touch(ctx, req.RideID, now); err != nil {
			return nil, err
		}
	}

	driver, err := s.drivers.GetByID(ctx, d.ID)
	if err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.UpdateLocation(ctx, d.ID, lat, lng, driver.Available); err != nil {
			s.log.WithError(err).WithField("driver_id", d.ID).Warn("failed to index driver location")
		}
	}

	s.log.WithFields(logrus.Fields{
		"driver_id": d.ID,
		"ride_id":   req.RideID,
	}).Debug("driver location updated")

	return driver, nil
}

// NearbyDrivers lists available drivers around a point, closest first. Staff only.
func (s *DriverService) NearbyDrivers(ctx context.Context, caller identity.Identity, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if _, ok := caller.(identity.Staff); !ok {
		return nil, forbidden("only staff can look up nearby drivers")
	}
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return nil, validationError("invalid location")
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if radiusKm > maxNearbyRadiusKm {
		return nil, validationError("radius must not exceed %.0f km", maxNearbyRadiusKm)
	}
	return s.NearbyAvailable(ctx, lat, lng, radiusKm)
}

// NearbyAvailable finds available drivers within radiusKm. It reads the Redis
// GEO index when configured and falls back to scanning the driver table.
func (s *DriverService) NearbyAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if s.index != nil {
		nearby, err := s.index.FindNearbyAvailable(ctx, lat, lng, radiusKm)
		if err == nil {
			return nearby, nil
		}
		s.log.WithError(err).Warn("geo index lookup failed, falling back to database")
	}

	drivers, err := s.drivers.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	center := geo.Point{Lat: lat, Lng: lng}
	result := make([]redis.DriverLocation, 0, len(drivers))
	for _, d := range drivers {
		if !d.HasLocation() {
			continue
		}
		dist := geo.DistanceKm(center, geo.Point{Lat: *d.Lat, Lng: *d.Lng})
		if dist > radiusKm {
			continue
		}
		result = append(result, redis.DriverLocation{
			DriverID:   d.ID,
			Lat:        *d.Lat,
			Lng:        *d.Lng,
			DistanceKm: dist,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DistanceKm < result[j].DistanceKm })

	return result, nil
}
