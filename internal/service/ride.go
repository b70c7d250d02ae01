package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/identity"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

const (
	maxAddressLength = 255

	defaultAvailableLimit = 50
	maxAvailableLimit     = 100

	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// RideService handles ride creation, reads and rider/driver driven transitions.
type RideService struct {
	store    repository.RideStore
	drivers  repository.DriverRepository
	index    redis.LocationIndex
	surge    SurgePricer
	notifier *NotificationService
	log      logrus.FieldLogger
}

// NewRideService creates a new RideService. index may be nil when Redis is disabled.
func NewRideService(
	store repository.RideStore,
	drivers repository.DriverRepository,
	index redis.LocationIndex,
	surge SurgePricer,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *RideService {
	if surge == nil {
		surge = StaticSurge(1.0)
	}
	return &RideService{
		store:    store,
		drivers:  drivers,
		index:    index,
		surge:    surge,
		notifier: notifier,
		log:      log,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	PickupAddress  string
	DropoffAddress string
	PickupLat      float64
	PickupLng      float64
	DropoffLat     float64
	DropoffLng     float64
}

// CreateRide opens a new REQUESTED ride for the calling rider.
func (s *RideService) CreateRide(ctx context.Context, caller identity.Identity, req CreateRideRequest) (*domain.Ride, error) {
	rider, err := requireRider(caller)
	if err != nil {
		return nil, err
	}
	if err := validateCreateRequest(&req); err != nil {
		return nil, err
	}

	now := time.Now()
	ride := &domain.Ride{
		ID:              uuid.New().String(),
		RiderID:         rider.ID,
		PickupAddress:   req.PickupAddress,
		DropoffAddress:  req.DropoffAddress,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DropoffLat:      req.DropoffLat,
		DropoffLng:      req.DropoffLng,
		Status:          domain.RideStatusRequested,
		SurgeMultiplier: s.surge.GetMultiplier(ctx, req.PickupLat, req.PickupLng),
		PaymentStatus:   domain.PaymentStatusUnpaid,
		RequestedAt:     now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":  ride.ID,
		"rider_id": ride.RiderID,
		"surge":    ride.SurgeMultiplier,
	}).Info("ride requested")
	s.notifier.NotifyRideRequested(ctx, ride)

	return ride, nil
}

// validateCreateRequest trims addresses and rounds coordinates in place.
func validateCreateRequest(req *CreateRideRequest) error {
	req.PickupAddress = strings.TrimSpace(req.PickupAddress)
	req.DropoffAddress = strings.TrimSpace(req.DropoffAddress)

	if req.PickupAddress == "" {
		return validationError("pickup_address is required")
	}
	if req.DropoffAddress == "" {
		return validationError("dropoff_address is required")
	}
	if utf8.RuneCountInString(req.PickupAddress) > maxAddressLength {
		return validationError("pickup_address exceeds %d characters", maxAddressLength)
	}
	if utf8.RuneCountInString(req.DropoffAddress) > maxAddressLength {
		return validationError("dropoff_address exceeds %d characters", maxAddressLength)
	}

	if !geo.ValidLatitude(req.PickupLat) || !geo.ValidLongitude(req.PickupLng) {
		return validationError("invalid pickup location")
	}
	if !geo.ValidLatitude(req.DropoffLat) || !geo.ValidLongitude(req.DropoffLng) {
		return validationError("invalid dropoff location")
	}

	req.PickupLat = domain.RoundCoordinate(req.PickupLat)
	req.PickupLng = domain.RoundCoordinate(req.PickupLng)
	req.DropoffLat = domain.RoundCoordinate(req.DropoffLat)
	req.DropoffLng = domain.RoundCoordinate(req.DropoffLng)

	if req.PickupLat == req.DropoffLat && req.PickupLng == req.DropoffLng {
		return validationError("pickup and dropoff must differ")
	}
	return nil
}

// GetRide returns a ride the caller is allowed to see.
func (s *RideService) GetRide(ctx context.Context, caller identity.Identity, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, validationError("ride id is required")
	}
	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !canView(ride, caller) {
		return nil, forbidden("not allowed to view this ride")
	}
	return ride, nil
}

// ListAvailable returns unclaimed rides, oldest first.
func (s *RideService) ListAvailable(ctx context.Context, caller identity.Identity, limit, offset int) ([]*domain.Ride, error) {
	switch caller.(type) {
	case identity.Driver, identity.Staff:
	default:
		return nil, forbidden("only drivers can list available rides")
	}

	if limit <= 0 {
		limit = defaultAvailableLimit
	}
	if limit > maxAvailableLimit {
		limit = maxAvailableLimit
	}
	if offset < 0 {
		return nil, validationError("offset must not be negative")
	}
	return s.store.ListAvailable(ctx, repository.Page{Limit: limit, Offset: offset})
}

// CancelRide moves the caller's REQUESTED ride to CANCELLED.
func (s *RideService) CancelRide(ctx context.Context, caller identity.Identity, rideID string) (*domain.Ride, error) {
	rider, err := requireRider(caller)
	if err != nil {
		return nil, err
	}

	var updated *domain.Ride
	err = s.store.InTx(ctx, func(tx repository.RideTx) error {
		ride, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if ride.RiderID != rider.ID {
			return forbidden("only the rider who requested the ride can cancel it")
		}
		if err := applyTransition(ctx, tx, ride, domain.RideStatusCancelled, repository.RideUpdate{}); err != nil {
			return err
		}
		updated = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordTransition(domain.RideStatusRequested, domain.RideStatusCancelled)
	s.log.WithField("ride_id", updated.ID).Info("ride cancelled")
	s.notifier.NotifyRideCancelled(ctx, updated)

	return updated, nil
}

// CompleteRide moves the caller's ONGOING ride to COMPLETED and frees the driver.
func (s *RideService) CompleteRide(ctx context.Context, caller identity.Identity, rideID string) (*domain.Ride, error) {
	driver, err := requireDriver(caller)
	if err != nil {
		return nil, err
	}

	var updated *domain.Ride
	err = s.store.InTx(ctx, func(tx repository.RideTx) error {
		ride, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if !ride.IsAssignedTo(driver.ID) {
			return forbidden("only the assigned driver can complete the ride")
		}

		now := time.Now()
		upd := repository.RideUpdate{CompletedAt: &now, UpdatedAt: now}
		if err := applyTransition(ctx, tx, ride, domain.RideStatusCompleted, upd); err != nil {
			return err
		}
		if err := tx.SetDriverAvailable(ctx, driver.ID, true); err != nil {
			return err
		}
		updated = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordTransition(domain.RideStatusOngoing, domain.RideStatusCompleted)
	s.mirrorAvailability(ctx, driver.ID, true)
	s.log.WithFields(logrus.Fields{
		"ride_id":   updated.ID,
		"driver_id": driver.ID,
	}).Info("ride completed")
	s.notifier.NotifyRideCompleted(ctx, updated)

	return updated, nil
}

// TrackResult is the driver position of an ONGOING ride.
// Lat, Lng and LocationUpdatedAt are nil until the driver pings.
type TrackResult struct {
	RideID            string
	Status            domain.RideStatus
	DriverID          string
	Lat               *float64
	Lng               *float64
	LocationUpdatedAt *time.Time
}

// TrackRide returns the assigned driver's last known position while the ride is ONGOING.
func (s *RideService) TrackRide(ctx context.Context, caller identity.Identity, rideID string) (*TrackResult, error) {
	if rideID == "" {
		return nil, validationError("ride id is required")
	}
	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if _, staff := caller.(identity.Staff); !staff && !isParticipant(ride, caller) {
		return nil, forbidden("not allowed to track this ride")
	}
	if ride.Status != domain.RideStatusOngoing {
		return nil, ErrRideNotOngoing
	}
	if !ride.HasDriver() {
		return nil, ErrNoDriverAssigned
	}

	result := &TrackResult{
		RideID:   ride.ID,
		Status:   ride.Status,
		DriverID: ride.AssignedDriver(),
	}

	driver, err := s.drivers.GetByID(ctx, result.DriverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, nil
		}
		return nil, err
	}
	result.Lat = driver.Lat
	result.Lng = driver.Lng
	result.LocationUpdatedAt = driver.LocationUpdatedAt

	return result, nil
}

// HistoryPage is one page of a caller's finished rides.
type HistoryPage struct {
	Rides    []*domain.Ride
	Total    int
	Page     int
	PageSize int
}

// History lists the caller's COMPLETED and CANCELLED rides, newest first.
func (s *RideService) History(ctx context.Context, caller identity.Identity, page, pageSize int) (*HistoryPage, error) {
	var filter repository.HistoryFilter
	switch c := caller.(type) {
	case identity.Rider:
		filter.RiderID = c.ID
	case identity.Driver:
		filter.DriverID = c.ID
	default:
		return nil, forbidden("history is only available to riders and drivers")
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}
	if page-1 > math.MaxInt/pageSize {
		return nil, validationError("page %d is out of range", page)
	}

	rides, total, err := s.store.ListHistory(ctx, filter, repository.Page{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Rides:    rides,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// mirrorAvailability copies a committed availability change to the Redis set.
func (s *RideService) mirrorAvailability(ctx context.Context, driverID string, available bool) {
	if s.index == nil {
		return
	}
	if err := s.index.SetAvailable(ctx, driverID, available); err != nil {
		s.log.WithError(err).WithField("driver_id", driverID).Warn("failed to mirror driver availability")
	}
}
