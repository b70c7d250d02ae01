package service

import (
	"context"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/observability"
	"ridehail/internal/repository"
)

// lockRide takes the ride's exclusive lock for the rest of the transaction.
func lockRide(ctx context.Context, tx repository.RideTx, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, validationError("ride id is required")
	}
	start := time.Now()
	ride, err := tx.GetForUpdate(ctx, rideID)
	observability.LockWait.Observe(time.Since(start).Seconds())
	return ride, err
}

// applyTransition moves a locked ride to status "to", writing upd alongside.
// The write is conditional on the status read under the lock.
func applyTransition(ctx context.Context, tx repository.RideTx, ride *domain.Ride, to domain.RideStatus, upd repository.RideUpdate) error {
	from := ride.Status
	if !domain.CanTransition(from, to) {
		return invalidTransition("cannot move ride from %s to %s", from, to)
	}

	upd.Status = &to
	if upd.UpdatedAt.IsZero() {
		upd.UpdatedAt = time.Now()
	}
	ok, err := tx.ConditionalUpdate(ctx, ride.ID, from, upd)
	if err != nil {
		return err
	}
	if !ok {
		return invalidTransition("ride is no longer %s", from)
	}
	upd.Apply(ride)
	return nil
}

func recordTransition(from, to domain.RideStatus) {
	observability.RideTransitions.WithLabelValues(string(from), string(to)).Inc()
}
