package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"ridehail/internal/domain"
	"ridehail/internal/identity"
	"ridehail/internal/observability"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// MatchingService runs the acceptance protocol: many drivers may race for a
// REQUESTED ride and exactly one of them wins it.
type MatchingService struct {
	store    repository.RideStore
	index    redis.LocationIndex
	notifier *NotificationService
	log      logrus.FieldLogger
}

// NewMatchingService creates a new MatchingService. index may be nil when Redis is disabled.
func NewMatchingService(
	store repository.RideStore,
	index redis.LocationIndex,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *MatchingService {
	return &MatchingService{
		store:    store,
		index:    index,
		notifier: notifier,
		log:      log,
	}
}

// Accept assigns the calling driver to the ride and moves it to ONGOING.
// Every driver that loses the race gets ErrAlreadyTaken.
func (s *MatchingService) Accept(ctx context.Context, caller identity.Identity, rideID string) (*domain.Ride, error) {
	driver, err := requireDriver(caller)
	if err != nil {
		return nil, err
	}

	var accepted *domain.Ride
	err = s.store.InTx(ctx, func(tx repository.RideTx) error {
		ride, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusRequested || ride.HasDriver() {
			return ErrAlreadyTaken
		}

		upd := repository.RideUpdate{DriverID: &driver.ID}
		if err := applyTransition(ctx, tx, ride, domain.RideStatusOngoing, upd); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				return ErrAlreadyTaken
			}
			return err
		}
		if err := tx.SetDriverAvailable(ctx, driver.ID, false); err != nil {
			return err
		}
		accepted = ride
		return nil
	})

	observability.AcceptAttempts.WithLabelValues(acceptOutcome(err)).Inc()
	if err != nil {
		if errors.Is(err, ErrAlreadyTaken) {
			s.log.WithFields(logrus.Fields{
				"ride_id":   rideID,
				"driver_id": driver.ID,
			}).Debug("ride already taken")
		}
		return nil, err
	}

	recordTransition(domain.RideStatusRequested, domain.RideStatusOngoing)
	if s.index != nil {
		if err := s.index.SetAvailable(ctx, driver.ID, false); err != nil {
			s.log.WithError(err).WithField("driver_id", driver.ID).Warn("failed to mirror driver availability")
		}
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":   accepted.ID,
		"driver_id": driver.ID,
	}).Info("ride accepted")
	s.notifier.NotifyRideAccepted(ctx, accepted)

	return accepted, nil
}

func acceptOutcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeAccepted
	case errors.Is(err, ErrAlreadyTaken):
		return observability.OutcomeTaken
	case errors.Is(err, ErrBusy):
		return observability.OutcomeBusy
	default:
		return observability.OutcomeError
	}
}
