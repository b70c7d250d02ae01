package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/observability"
)

// NotificationService turns committed ride changes into published events.
// Delivery is best-effort: failures are logged and counted, never returned.
type NotificationService struct {
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher events.Publisher, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{publisher: publisher, log: log}
}

// NotifyRideRequested announces a new ride open for acceptance.
func (s *NotificationService) NotifyRideRequested(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, events.RideEvent{
		Type:    events.RideRequested,
		RideID:  ride.ID,
		Status:  string(ride.Status),
		Title:   "New Ride Request",
		Message: fmt.Sprintf("New ride request. Pickup at %s (%.4f, %.4f)", ride.PickupAddress, ride.PickupLat, ride.PickupLng),
		Data: map[string]any{
			"pickup_lat": ride.PickupLat,
			"pickup_lng": ride.PickupLng,
			"surge":      ride.SurgeMultiplier,
		},
	})
}

// NotifyRideAccepted tells the rider a driver is on the way.
func (s *NotificationService) NotifyRideAccepted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, events.RideEvent{
		Type:        events.RideAccepted,
		RideID:      ride.ID,
		RecipientID: ride.RiderID,
		Status:      string(ride.Status),
		Title:       "Driver Assigned",
		Message:     fmt.Sprintf("Driver %s accepted your ride", ride.AssignedDriver()),
		Data:        map[string]any{"driver_id": ride.AssignedDriver()},
	})
}

// NotifyRideCompleted tells the rider the ride has ended.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, events.RideEvent{
		Type:        events.RideCompleted,
		RideID:      ride.ID,
		RecipientID: ride.RiderID,
		Status:      string(ride.Status),
		Title:       "Ride Completed",
		Message:     "Your ride has been completed.",
		Data:        map[string]any{"driver_id": ride.AssignedDriver()},
	})
}

// NotifyRideCancelled records a rider cancellation.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, events.RideEvent{
		Type:    events.RideCancelled,
		RideID:  ride.ID,
		Status:  string(ride.Status),
		Title:   "Ride Cancelled",
		Message: "The rider has cancelled the ride",
	})
}

// NotifyFareCalculated tells the rider what they owe.
func (s *NotificationService) NotifyFareCalculated(ctx context.Context, ride *domain.Ride) {
	var fare float64
	if ride.Fare != nil {
		fare = *ride.Fare
	}
	s.send(ctx, events.RideEvent{
		Type:        events.RideFareCalculated,
		RideID:      ride.ID,
		RecipientID: ride.RiderID,
		Status:      string(ride.Status),
		Title:       "Fare Ready",
		Message:     fmt.Sprintf("Your fare is %.2f", fare),
		Data:        map[string]any{"fare": fare, "surge": ride.SurgeMultiplier},
	})
}

// NotifyPaymentReceived tells the driver the ride was paid.
func (s *NotificationService) NotifyPaymentReceived(ctx context.Context, ride *domain.Ride) {
	method := ""
	if ride.PaymentMethod != nil {
		method = string(*ride.PaymentMethod)
	}
	s.send(ctx, events.RideEvent{
		Type:        events.RidePaid,
		RideID:      ride.ID,
		RecipientID: ride.AssignedDriver(),
		Status:      string(ride.Status),
		Title:       "Payment Received",
		Message:     fmt.Sprintf("Ride paid by %s", method),
		Data:        map[string]any{"payment_method": method},
	})
}

// NotifyFeedbackSubmitted tells the other party they were rated.
func (s *NotificationService) NotifyFeedbackSubmitted(ctx context.Context, ride *domain.Ride, fb *domain.Feedback) {
	recipient := ride.AssignedDriver()
	if fb.Role == domain.FeedbackRoleDriver {
		recipient = ride.RiderID
	}
	s.send(ctx, events.RideEvent{
		Type:        events.FeedbackSubmitted,
		RideID:      ride.ID,
		RecipientID: recipient,
		Status:      string(ride.Status),
		Title:       "New Rating",
		Message:     fmt.Sprintf("You received a %d star rating", fb.Rating),
		Data:        map[string]any{"rating": fb.Rating, "role": fb.Role},
	})
}

func (s *NotificationService) send(ctx context.Context, event events.RideEvent) {
	if s == nil || s.publisher == nil {
		return
	}
	event.OccurredAt = time.Now()

	// Detach from request cancellation: the change is already committed.
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		observability.EventPublishFailures.Inc()
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":   event.Type,
			"ride_id": event.RideID,
		}).Warn("failed to publish ride event")
	}
}
