package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
	"ridehail/internal/identity"
	"ridehail/internal/repository"
)

// FarePolicy holds the fare formula constants.
type FarePolicy struct {
	BaseFare  float64
	PerKmRate float64
}

// DefaultFarePolicy returns base 50.00 and 10.00 per km.
func DefaultFarePolicy() FarePolicy {
	return FarePolicy{BaseFare: 50.00, PerKmRate: 10.00}
}

// Compute returns base + distance × per-km × surge, rounded to two decimals.
func (p FarePolicy) Compute(distanceKm, surge float64) float64 {
	if surge <= 0 {
		surge = 1.0
	}
	return domain.RoundMoney(p.BaseFare + distanceKm*p.PerKmRate*surge)
}

// RideDistanceKm returns the straight-line pickup-to-drop distance of a ride.
func RideDistanceKm(ride *domain.Ride) float64 {
	return geo.DistanceKm(
		geo.Point{Lat: ride.PickupLat, Lng: ride.PickupLng},
		geo.Point{Lat: ride.DropoffLat, Lng: ride.DropoffLng},
	)
}

// FareService computes the fare of a completed ride exactly once.
type FareService struct {
	store    repository.RideStore
	policy   FarePolicy
	notifier *NotificationService
	log      logrus.FieldLogger
}

// NewFareService creates a new FareService.
func NewFareService(store repository.RideStore, policy FarePolicy, notifier *NotificationService, log logrus.FieldLogger) *FareService {
	return &FareService{
		store:    store,
		policy:   policy,
		notifier: notifier,
		log:      log,
	}
}

// CalculateFare sets the fare on a COMPLETED ride that has none yet.
// The rider, the assigned driver and staff may trigger it.
func (s *FareService) CalculateFare(ctx context.Context, caller identity.Identity, rideID string) (*domain.Ride, error) {
	var updated *domain.Ride
	err := s.store.InTx(ctx, func(tx repository.RideTx) error {
		ride, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return err
		}

		if _, staff := caller.(identity.Staff); !staff && !isParticipant(ride, caller) {
			return forbidden("not allowed to calculate the fare of this ride")
		}
		if ride.Status != domain.RideStatusCompleted {
			return ErrRideNotCompleted
		}
		if ride.Fare != nil {
			return ErrFareAlreadySet
		}

		fare := s.policy.Compute(RideDistanceKm(ride), ride.SurgeMultiplier)
		upd := repository.RideUpdate{Fare: &fare, UpdatedAt: time.Now()}
		ok, err := tx.ConditionalUpdate(ctx, ride.ID, domain.RideStatusCompleted, upd)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRideNotCompleted
		}
		upd.Apply(ride)
		updated = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id": updated.ID,
		"fare":    *updated.Fare,
	}).Info("fare calculated")
	s.notifier.NotifyFareCalculated(ctx, updated)

	return updated, nil
}
