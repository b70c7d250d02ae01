package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/identity"
	"ridehail/internal/logger"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
)

func TestAccept_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ride := f.requestRide(t, rider1)

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		taken   int
		other   []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			driver := identity.Driver{ID: fmt.Sprintf("driver-%02d", i)}
			<-start
			_, err := f.matching.Accept(context.Background(), driver, ride.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, driver.ID)
			case errors.Is(err, ErrAlreadyTaken):
				taken++
			default:
				other = append(other, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly 1 winner, got %d: %v", len(winners), winners)
	}
	if taken != n-1 {
		t.Errorf("expected %d already-taken results, got %d", n-1, taken)
	}

	stored, err := f.store.Rides().GetByID(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	if stored.Status != domain.RideStatusOngoing {
		t.Errorf("expected ONGOING, got %s", stored.Status)
	}
	if !stored.IsAssignedTo(winners[0]) {
		t.Errorf("expected driver %s stored, got %v", winners[0], stored.DriverID)
	}
}

func TestAccept_TwoDriversSimultaneously(t *testing.T) {
	f := newFixture(t)
	ride := f.requestRide(t, rider1)

	drivers := []identity.Driver{driver1, driver2}
	errs := make([]error, len(drivers))

	var wg sync.WaitGroup
	for i, d := range drivers {
		wg.Add(1)
		go func(i int, d identity.Driver) {
			defer wg.Done()
			_, errs[i] = f.matching.Accept(context.Background(), d, ride.ID)
		}(i, d)
	}
	wg.Wait()

	var winner string
	for i, err := range errs {
		if err == nil {
			winner = drivers[i].ID
			continue
		}
		if !errors.Is(err, ErrAlreadyTaken) {
			t.Errorf("driver %s: expected ErrAlreadyTaken, got %v", drivers[i].ID, err)
		}
	}
	if winner == "" {
		t.Fatal("expected one driver to win")
	}

	stored, _ := f.store.Rides().GetByID(context.Background(), ride.ID)
	if !stored.IsAssignedTo(winner) || stored.Status != domain.RideStatusOngoing {
		t.Errorf("expected ONGOING ride owned by %s, got %s owned by %v", winner, stored.Status, stored.DriverID)
	}
}

func TestAccept_Sequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ride := f.requestRide(t, rider1)

	accepted, err := f.matching.Accept(ctx, driver1, ride.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.RideStatusOngoing || !accepted.IsAssignedTo(driver1.ID) {
		t.Errorf("unexpected ride after accept: %+v", accepted)
	}

	if _, err := f.matching.Accept(ctx, driver2, ride.ID); !errors.Is(err, ErrAlreadyTaken) {
		t.Errorf("expected ErrAlreadyTaken, got %v", err)
	}
	// Re-accepting your own ride is still a lost race.
	if _, err := f.matching.Accept(ctx, driver1, ride.ID); !errors.Is(err, ErrAlreadyTaken) {
		t.Errorf("expected ErrAlreadyTaken for repeat accept, got %v", err)
	}
}

func TestAccept_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cancelled := f.requestRide(t, rider1)
	if _, err := f.rides.CancelRide(ctx, rider1, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	open := f.requestRide(t, rider1)

	tests := []struct {
		name    string
		caller  identity.Identity
		rideID  string
		wantErr error
	}{
		{"missing ride", driver1, "does-not-exist", ErrNotFound},
		{"cancelled ride", driver1, cancelled.ID, ErrAlreadyTaken},
		{"rider cannot accept", rider1, open.ID, ErrForbidden},
		{"staff cannot accept", staff, open.ID, ErrForbidden},
		{"empty id", driver1, "", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.matching.Accept(ctx, tt.caller, tt.rideID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	stored, _ := f.store.Rides().GetByID(ctx, cancelled.ID)
	if stored.HasDriver() {
		t.Error("cancelled ride must never get a driver")
	}
}

func TestAccept_MarksDriverUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.drivers.UpdateLocation(ctx, driver1, UpdateLocationRequest{Lat: 12.97, Lng: 77.59}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	f.ongoingRide(t, rider1, driver1)

	d, err := f.store.Drivers().GetByID(ctx, driver1.ID)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if d.Available {
		t.Error("expected driver to be unavailable after accept")
	}
	if avail, ok := f.index.isAvailable(driver1.ID); !ok || avail {
		t.Errorf("expected index to mark driver unavailable, got %v (set=%v)", avail, ok)
	}
}

func TestAccept_BusyWhenLockHeld(t *testing.T) {
	store := memory.New(50 * time.Millisecond)
	log := logger.Discard()
	matching := NewMatchingService(store.Rides(), nil, nil, log)

	ride := &domain.Ride{
		ID:              "ride-busy",
		RiderID:         rider1.ID,
		Status:          domain.RideStatusRequested,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		SurgeMultiplier: 1.0,
		RequestedAt:     time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := store.Rides().Create(context.Background(), ride); err != nil {
		t.Fatalf("create: %v", err)
	}

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.Rides().InTx(context.Background(), func(tx repository.RideTx) error {
			if _, err := tx.GetForUpdate(context.Background(), ride.ID); err != nil {
				return err
			}
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked
	defer close(done)

	_, err := matching.Accept(context.Background(), driver1, ride.ID)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
}

func TestAcceptOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "accepted"},
		{ErrAlreadyTaken, "already_taken"},
		{fmt.Errorf("wrapped: %w", ErrBusy), "busy"},
		{ErrNotFound, "error"},
	}
	for _, tt := range tests {
		if got := acceptOutcome(tt.err); got != tt.want {
			t.Errorf("acceptOutcome(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
