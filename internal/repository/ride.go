package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// RideStore defines the persistence operations for rides.
// Status transitions must go through InTx.
type RideStore interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID without locking it.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListAvailable returns REQUESTED rides without a driver, oldest first.
	ListAvailable(ctx context.Context, page Page) ([]*domain.Ride, error)

	// ListHistory returns finished rides of one rider or driver, newest first,
	// together with the total number of matching rides.
	ListHistory(ctx context.Context, filter HistoryFilter, page Page) ([]*domain.Ride, int, error)

	// Touch sets updated_at on a ride.
	Touch(ctx context.Context, id string, at time.Time) error

	// InTx runs fn inside a single transaction. A non-nil error from fn
	// rolls the transaction back; otherwise it is committed.
	InTx(ctx context.Context, fn func(tx RideTx) error) error
}

// RideTx is the explicit transaction handle passed to InTx callbacks.
type RideTx interface {
	// GetForUpdate fetches a ride and holds its exclusive lock until the
	// transaction ends. Waiting longer than the store's lock timeout yields ErrBusy.
	GetForUpdate(ctx context.Context, id string) (*domain.Ride, error)

	// ConditionalUpdate applies upd only if the ride's status still equals
	// expected. It reports whether the update took effect.
	ConditionalUpdate(ctx context.Context, id string, expected domain.RideStatus, upd RideUpdate) (bool, error)

	// SetDriverAvailable records the driver's availability flag.
	SetDriverAvailable(ctx context.Context, driverID string, available bool) error
}

// RideUpdate is a partial update of a ride. Nil fields are left unchanged.
type RideUpdate struct {
	DriverID      *string
	Status        *domain.RideStatus
	Fare          *float64
	PaymentStatus *domain.PaymentStatus
	PaymentMethod *domain.PaymentMethod
	PaidAt        *time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

// Apply copies the set fields of u onto ride.
func (u RideUpdate) Apply(ride *domain.Ride) {
	if u.DriverID != nil {
		v := *u.DriverID
		ride.DriverID = &v
	}
	if u.Status != nil {
		ride.Status = *u.Status
	}
	if u.Fare != nil {
		v := *u.Fare
		ride.Fare = &v
	}
	if u.PaymentStatus != nil {
		ride.PaymentStatus = *u.PaymentStatus
	}
	if u.PaymentMethod != nil {
		v := *u.PaymentMethod
		ride.PaymentMethod = &v
	}
	if u.PaidAt != nil {
		v := *u.PaidAt
		ride.PaidAt = &v
	}
	if u.CompletedAt != nil {
		v := *u.CompletedAt
		ride.CompletedAt = &v
	}
	if !u.UpdatedAt.IsZero() {
		ride.UpdatedAt = u.UpdatedAt
	}
}

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// HistoryFilter selects whose finished rides to list. Exactly one field is set.
type HistoryFilter struct {
	RiderID  string
	DriverID string
}

// Matches reports whether ride belongs to the filtered party and is finished.
func (f HistoryFilter) Matches(ride *domain.Ride) bool {
	if ride.Status != domain.RideStatusCompleted && ride.Status != domain.RideStatusCancelled {
		return false
	}
	if f.RiderID != "" {
		return ride.RiderID == f.RiderID
	}
	if f.DriverID != "" {
		return ride.IsAssignedTo(f.DriverID)
	}
	return false
}
