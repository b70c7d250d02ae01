package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// UpdateLocation records the driver's last known position, creating
	// the driver record on first contact.
	UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error

	// ListAvailable returns available drivers that have reported a location.
	ListAvailable(ctx context.Context) ([]*domain.Driver, error)
}

// FeedbackRepository defines the persistence operations for ride feedback.
type FeedbackRepository interface {
	// Create stores feedback. It returns ErrDuplicate if feedback for the
	// same ride and role already exists.
	Create(ctx context.Context, fb *domain.Feedback) error

	// ListByRide returns all feedback left for a ride.
	ListByRide(ctx context.Context, rideID string) ([]*domain.Feedback, error)
}
