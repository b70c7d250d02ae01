package domain

import "time"

// Receipt summarizes the fare breakdown of a completed ride.
type Receipt struct {
	RideID          string
	RiderID         string
	DriverID        string
	PickupAddress   string
	DropoffAddress  string
	PickupLat       float64
	PickupLng       float64
	DropoffLat      float64
	DropoffLng      float64
	Distance        float64 // In kilometers
	BaseFare        float64
	DistanceFare    float64
	SurgeMultiplier float64
	SurgeAmount     float64
	TotalFare       float64
	PaymentStatus   PaymentStatus
	PaymentMethod   PaymentMethod
	PaidAt          *time.Time
	Duration        time.Duration
	RequestedAt     time.Time
	CompletedAt     time.Time
}
