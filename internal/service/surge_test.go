package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository/memory"
)

type fakeLocator struct {
	drivers int
	err     error
}

func (f fakeLocator) NearbyAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]redis.DriverLocation, f.drivers)
	for i := range out {
		out[i] = redis.DriverLocation{DriverID: fmt.Sprintf("d-%d", i), Lat: lat, Lng: lng}
	}
	return out, nil
}

func TestStaticSurge(t *testing.T) {
	if got := StaticSurge(1.3).GetMultiplier(context.Background(), 0, 0); got != 1.3 {
		t.Errorf("expected 1.3, got %v", got)
	}
	if got := StaticSurge(0.5).GetMultiplier(context.Background(), 0, 0); got != 1.0 {
		t.Errorf("expected multipliers below 1.0 to clamp to 1.0, got %v", got)
	}
}

func TestCalculateSurgeMultiplier(t *testing.T) {
	s := NewSurgeService(fakeLocator{}, nil, 1.0)

	tests := []struct {
		supply, demand int
		want           float64
	}{
		{0, 0, 1.0},
		{0, 3, 2.0},
		{10, 5, 1.0},
		{10, 12, 1.25},
		{10, 15, 1.5},
		{10, 20, 2.0},
		{1, 100, 2.0},
	}
	for _, tt := range tests {
		if got := s.calculateSurgeMultiplier(tt.supply, tt.demand); got != tt.want {
			t.Errorf("supply=%d demand=%d: got %v, want %v", tt.supply, tt.demand, got, tt.want)
		}
	}
}

func TestSurgeService_GetMultiplier(t *testing.T) {
	store := memory.New(time.Second)
	ctx := context.Background()

	now := time.Now()
	pickups := [][2]float64{
		{12.9716, 77.5946},
		{12.9720, 77.5950},
		{12.9700, 77.5900},
		{13.5000, 78.0000}, // far outside the radius
	}
	for i, p := range pickups {
		ride := &domain.Ride{
			ID:              fmt.Sprintf("ride-%d", i),
			RiderID:         "rider",
			PickupLat:       p[0],
			PickupLng:       p[1],
			Status:          domain.RideStatusRequested,
			PaymentStatus:   domain.PaymentStatusUnpaid,
			SurgeMultiplier: 1.0,
			RequestedAt:     now.Add(time.Duration(i) * time.Second),
			UpdatedAt:       now,
		}
		if err := store.Rides().Create(ctx, ride); err != nil {
			t.Fatalf("create ride: %v", err)
		}
	}

	tests := []struct {
		name    string
		locator fakeLocator
		floor   float64
		want    float64
	}{
		{"three requests one driver", fakeLocator{drivers: 1}, 1.0, 2.0},
		{"three requests two drivers", fakeLocator{drivers: 2}, 1.0, 1.5},
		{"plenty of drivers", fakeLocator{drivers: 10}, 1.0, 1.0},
		{"floor applies", fakeLocator{drivers: 10}, 1.2, 1.2},
		{"locator failure fails open", fakeLocator{err: errors.New("redis down")}, 1.0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSurgeService(tt.locator, store.Rides(), tt.floor)
			if got := s.GetMultiplier(ctx, 12.9716, 77.5946); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
