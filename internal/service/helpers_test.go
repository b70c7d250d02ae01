package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/identity"
	"ridehail/internal/logger"
	"ridehail/internal/redis"
	"ridehail/internal/repository/memory"
)

// Bengaluru to Mysuru.
var bengaluruMysuru = CreateRideRequest{
	PickupAddress:  "MG Road, Bengaluru",
	DropoffAddress: "Mysuru Palace, Mysuru",
	PickupLat:      12.9716,
	PickupLng:      77.5946,
	DropoffLat:     12.2958,
	DropoffLng:     76.6394,
}

var (
	rider1  = identity.Rider{ID: "rider-1"}
	rider2  = identity.Rider{ID: "rider-2"}
	driver1 = identity.Driver{ID: "driver-1"}
	driver2 = identity.Driver{ID: "driver-2"}
	staff   = identity.Staff{UserID: "ops-1"}
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RideEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.RideEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// mockLocationIndex is an in-process redis.LocationIndex. It does no geo filtering.
type mockLocationIndex struct {
	mu        sync.Mutex
	locations []redis.DriverLocation
	available map[string]bool

	findErr error
}

func newMockLocationIndex() *mockLocationIndex {
	return &mockLocationIndex{available: make(map[string]bool)}
}

func (m *mockLocationIndex) UpdateLocation(ctx context.Context, driverID string, lat, lng float64, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available[driverID] = available
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng})
	return nil
}

func (m *mockLocationIndex) SetAvailable(ctx context.Context, driverID string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available[driverID] = available
	return nil
}

func (m *mockLocationIndex) FindNearbyAvailable(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []redis.DriverLocation
	for _, loc := range m.locations {
		if m.available[loc.DriverID] {
			result = append(result, loc)
		}
	}
	return result, nil
}

// indexed returns every indexed location regardless of availability.
func (m *mockLocationIndex) indexed() []redis.DriverLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]redis.DriverLocation, len(m.locations))
	copy(result, m.locations)
	return result
}

func (m *mockLocationIndex) isAvailable(driverID string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.available[driverID]
	return v, ok
}

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	index     *mockLocationIndex

	rides    *RideService
	matching *MatchingService
	fares    *FareService
	payments *PaymentService
	feedback *FeedbackService
	drivers  *DriverService
	receipts *ReceiptService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithSurge(t, StaticSurge(1.0))
}

func newFixtureWithSurge(t *testing.T, surge SurgePricer) *fixture {
	t.Helper()

	log := logger.Discard()
	store := memory.New(time.Second)
	publisher := &recordingPublisher{}
	index := newMockLocationIndex()
	notifier := NewNotificationService(publisher, log)
	policy := DefaultFarePolicy()

	return &fixture{
		store:     store,
		publisher: publisher,
		index:     index,
		rides:     NewRideService(store.Rides(), store.Drivers(), index, surge, notifier, log),
		matching:  NewMatchingService(store.Rides(), index, notifier, log),
		fares:     NewFareService(store.Rides(), policy, notifier, log),
		payments:  NewPaymentService(store.Rides(), notifier, log),
		feedback:  NewFeedbackService(store.Rides(), store.Feedback(), notifier, log),
		drivers:   NewDriverService(store.Drivers(), store.Rides(), index, log),
		receipts:  NewReceiptService(store.Rides(), policy),
	}
}

func (f *fixture) requestRide(t *testing.T, rider identity.Identity) *domain.Ride {
	t.Helper()
	ride, err := f.rides.CreateRide(context.Background(), rider, bengaluruMysuru)
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return ride
}

func (f *fixture) ongoingRide(t *testing.T, rider identity.Identity, driver identity.Identity) *domain.Ride {
	t.Helper()
	ride := f.requestRide(t, rider)
	accepted, err := f.matching.Accept(context.Background(), driver, ride.ID)
	if err != nil {
		t.Fatalf("accept ride: %v", err)
	}
	return accepted
}

func (f *fixture) completedRide(t *testing.T, rider identity.Identity, driver identity.Identity) *domain.Ride {
	t.Helper()
	ride := f.ongoingRide(t, rider, driver)
	completed, err := f.rides.CompleteRide(context.Background(), driver, ride.ID)
	if err != nil {
		t.Fatalf("complete ride: %v", err)
	}
	return completed
}
