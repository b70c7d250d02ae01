package domain

import (
	"math"
	"time"
)

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "REQUESTED"
	RideStatusOngoing   RideStatus = "ONGOING"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// PaymentStatus represents whether a ride has been paid for.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// PaymentMethod represents the payment method for a ride.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodUPI  PaymentMethod = "UPI"
	PaymentMethodCard PaymentMethod = "CARD"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard:
		return true
	}
	return false
}

// Ride represents a ride request and its lifecycle.
type Ride struct {
	ID       string
	RiderID  string
	DriverID *string

	PickupAddress  string
	DropoffAddress string
	PickupLat      float64
	PickupLng      float64
	DropoffLat     float64
	DropoffLng     float64

	Status          RideStatus
	SurgeMultiplier float64 // 1.0 = no surge
	Fare            *float64

	PaymentStatus PaymentStatus
	PaymentMethod *PaymentMethod
	PaidAt        *time.Time

	RequestedAt time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// HasDriver reports whether a driver has claimed the ride.
func (r *Ride) HasDriver() bool {
	return r.DriverID != nil && *r.DriverID != ""
}

// IsAssignedTo reports whether driverID is the ride's assigned driver.
func (r *Ride) IsAssignedTo(driverID string) bool {
	return r.HasDriver() && *r.DriverID == driverID
}

// AssignedDriver returns the assigned driver ID or "" if none.
func (r *Ride) AssignedDriver() string {
	if r.DriverID == nil {
		return ""
	}
	return *r.DriverID
}

// Clone returns a deep copy of the ride.
func (r *Ride) Clone() *Ride {
	c := *r
	if r.DriverID != nil {
		v := *r.DriverID
		c.DriverID = &v
	}
	if r.Fare != nil {
		v := *r.Fare
		c.Fare = &v
	}
	if r.PaymentMethod != nil {
		v := *r.PaymentMethod
		c.PaymentMethod = &v
	}
	if r.PaidAt != nil {
		v := *r.PaidAt
		c.PaidAt = &v
	}
	if r.CompletedAt != nil {
		v := *r.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}

// CoordinatePrecision is the number of decimals stored for coordinates.
const CoordinatePrecision = 6

// RoundCoordinate rounds a latitude or longitude to the stored precision.
func RoundCoordinate(v float64) float64 {
	p := math.Pow10(CoordinatePrecision)
	return math.Round(v*p) / p
}

// RoundMoney rounds an amount to two decimals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
