package domain

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		from, to RideStatus
		want     bool
	}{
		{RideStatusRequested, RideStatusOngoing, true},
		{RideStatusRequested, RideStatusCancelled, true},
		{RideStatusOngoing, RideStatusCompleted, true},
		{RideStatusRequested, RideStatusCompleted, false},
		{RideStatusOngoing, RideStatusCancelled, false},
		{RideStatusOngoing, RideStatusRequested, false},
		{RideStatusCompleted, RideStatusCancelled, false},
		{RideStatusCompleted, RideStatusOngoing, false},
		{RideStatusCancelled, RideStatusOngoing, false},
		{RideStatusCancelled, RideStatusRequested, false},
	}

	for _, tc := range testCases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestRideStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	if RideStatusRequested.IsTerminal() || RideStatusOngoing.IsTerminal() {
		t.Error("REQUESTED and ONGOING must not be terminal")
	}
	if !RideStatusCompleted.IsTerminal() || !RideStatusCancelled.IsTerminal() {
		t.Error("COMPLETED and CANCELLED must be terminal")
	}
}

func TestRide_CloneIsDeep(t *testing.T) {
	t.Parallel()

	driverID := "driver-1"
	fare := 120.5
	ride := &Ride{ID: "ride-1", DriverID: &driverID, Fare: &fare}

	clone := ride.Clone()
	*clone.DriverID = "driver-2"
	*clone.Fare = 1

	if *ride.DriverID != "driver-1" {
		t.Errorf("expected original driver to be unchanged, got %s", *ride.DriverID)
	}
	if *ride.Fare != 120.5 {
		t.Errorf("expected original fare to be unchanged, got %v", *ride.Fare)
	}
}

func TestRoundingHelpers(t *testing.T) {
	t.Parallel()

	if got := RoundCoordinate(12.97161234); got != 12.971612 {
		t.Errorf("RoundCoordinate = %v, want 12.971612", got)
	}
	if got := RoundMoney(1330.16856); got != 1330.17 {
		t.Errorf("RoundMoney = %v, want 1330.17", got)
	}
	if !PaymentMethodUPI.Valid() || PaymentMethod("WALLET").Valid() {
		t.Error("unexpected payment method validity")
	}
}
