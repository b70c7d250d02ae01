package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ridehail/internal/domain"
	"ridehail/internal/identity"
	"ridehail/internal/repository"
)

// PaymentService records how a completed ride was paid. No money moves here;
// collection happens outside the system.
type PaymentService struct {
	store    repository.RideStore
	notifier *NotificationService
	log      logrus.FieldLogger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store repository.RideStore, notifier *NotificationService, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// ValidatePaymentMethod validates a payment method string. Matching is case-insensitive.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	m := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(method)))
	if m == "" {
		return "", validationError("payment_method is required")
	}
	if !m.Valid() {
		return "", validationError("payment_method must be one of CASH, UPI, CARD")
	}
	return m, nil
}

// MarkPaid sets a COMPLETED, UNPAID ride to PAID with the given method.
// Only the rider and the assigned driver may do this.
func (s *PaymentService) MarkPaid(ctx context.Context, caller identity.Identity, rideID string, method string) (*domain.Ride, error) {
	pm, err := ValidatePaymentMethod(method)
	if err != nil {
		return nil, err
	}

	var updated *domain.Ride
	err = s.store.InTx(ctx, func(tx repository.RideTx) error {
		ride, err := lockRide(ctx, tx, rideID)
		if err != nil {
			return err
		}
		if !isParticipant(ride, caller) {
			return forbidden("only the rider or the assigned driver can record payment")
		}
		if ride.Status != domain.RideStatusCompleted {
			return ErrRideNotCompleted
		}
		if ride.PaymentStatus == domain.PaymentStatusPaid {
			return ErrAlreadyPaid
		}

		now := time.Now()
		paid := domain.PaymentStatusPaid
		upd := repository.RideUpdate{
			PaymentStatus: &paid,
			PaymentMethod: &pm,
			PaidAt:        &now,
			UpdatedAt:     now,
		}
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
		"ride_id":        updated.ID,
		"payment_method": pm,
	}).Info("ride paid")
	s.notifier.NotifyPaymentReceived(ctx, updated)

	return updated, nil
}
