package service

import (
	"context"
	"fmt"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/identity"
	"ridehail/internal/repository"
)

// ReceiptService builds fare breakdowns for completed rides.
type ReceiptService struct {
	rides  repository.RideStore
	policy FarePolicy
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(rides repository.RideStore, policy FarePolicy) *ReceiptService {
	return &ReceiptService{
		rides:  rides,
		policy: policy,
	}
}

// GetReceipt returns the receipt of a ride whose fare has been calculated.
func (s *ReceiptService) GetReceipt(ctx context.Context, caller identity.Identity, rideID string) (*domain.Receipt, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if _, staff := caller.(identity.Staff); !staff && !isParticipant(ride, caller) {
		return nil, forbidden("not allowed to view this receipt")
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}
	if ride.Fare == nil {
		return nil, ErrFareNotCalculated
	}
	return s.buildReceipt(ride), nil
}

// buildReceipt splits the stored fare into base, distance and surge parts.
// The stored total is authoritative; the parts are recomputed from the policy.
func (s *ReceiptService) buildReceipt(ride *domain.Ride) *domain.Receipt {
	surge := ride.SurgeMultiplier
	if surge < 1.0 {
		surge = 1.0
	}
	distance := RideDistanceKm(ride)
	distanceFare := distance * s.policy.PerKmRate

	receipt := &domain.Receipt{
		RideID:          ride.ID,
		RiderID:         ride.RiderID,
		DriverID:        ride.AssignedDriver(),
		PickupAddress:   ride.PickupAddress,
		DropoffAddress:  ride.DropoffAddress,
		PickupLat:       ride.PickupLat,
		PickupLng:       ride.PickupLng,
		DropoffLat:      ride.DropoffLat,
		DropoffLng:      ride.DropoffLng,
		Distance:        domain.RoundMoney(distance),
		BaseFare:        s.policy.BaseFare,
		DistanceFare:    domain.RoundMoney(distanceFare),
		SurgeMultiplier: surge,
		SurgeAmount:     domain.RoundMoney(distanceFare * (surge - 1.0)),
		TotalFare:       *ride.Fare,
		PaymentStatus:   ride.PaymentStatus,
		PaidAt:          ride.PaidAt,
		RequestedAt:     ride.RequestedAt,
	}
	if ride.PaymentMethod != nil {
		receipt.PaymentMethod = *ride.PaymentMethod
	}
	if ride.CompletedAt != nil {
		receipt.CompletedAt = *ride.CompletedAt
		receipt.Duration = ride.CompletedAt.Sub(ride.RequestedAt)
	}
	return receipt
}

// FormatReceipt formats the receipt as plain text.
func FormatReceipt(receipt *domain.Receipt) string {
	method := string(receipt.PaymentMethod)
	if method == "" {
		method = "-"
	}
	return `
=====================================
        RIDE RECEIPT
=====================================
Ride ID: ` + receipt.RideID + `
Date: ` + receipt.CompletedAt.Format("Jan 02, 2006 3:04 PM") + `

RIDE DETAILS
-------------------------------------
Pickup:   ` + receipt.PickupAddress + `
Dropoff:  ` + receipt.DropoffAddress + `
Duration: ` + formatDuration(receipt.Duration) + `
Distance: ` + formatFloat(receipt.Distance) + ` km

FARE BREAKDOWN
-------------------------------------
Base Fare:        ` + formatFloat(receipt.BaseFare) + `
Distance Fare:    ` + formatFloat(receipt.DistanceFare) + `
Surge (` + formatFloat(receipt.SurgeMultiplier) + `x):   ` + formatFloat(receipt.SurgeAmount) + `
-------------------------------------
TOTAL:            ` + formatFloat(receipt.TotalFare) + `

PAYMENT
-------------------------------------
Method: ` + method + `
Status: ` + string(receipt.PaymentStatus) + `

=====================================
     Thank you for riding with us!
=====================================
`
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	return fmt.Sprintf("%d min", minutes)
}
