// Package events publishes ride lifecycle events after their transaction commits.
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Type names a ride lifecycle event.
type Type string

const (
	RideRequested      Type = "ride.requested"
	RideAccepted       Type = "ride.accepted"
	RideCompleted      Type = "ride.completed"
	RideCancelled      Type = "ride.cancelled"
	RideFareCalculated Type = "ride.fare_calculated"
	RidePaid           Type = "ride.paid"
	FeedbackSubmitted  Type = "ride.feedback_submitted"
)

// RideEvent is the message published for every committed ride change.
type RideEvent struct {
	Type        Type           `json:"type"`
	RideID      string         `json:"ride_id"`
	RecipientID string         `json:"recipient_id,omitempty"`
	Status      string         `json:"status"`
	Title       string         `json:"title,omitempty"`
	Message     string         `json:"message,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// Publisher delivers ride events.
type Publisher interface {
	Publish(ctx context.Context, event RideEvent) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when no broker is configured.
type LogPublisher struct {
	log logrus.FieldLogger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event RideEvent) error {
	p.log.WithFields(logrus.Fields{
		"event":     event.Type,
		"ride_id":   event.RideID,
		"recipient": event.RecipientID,
		"status":    event.Status,
	}).Info(event.Message)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
