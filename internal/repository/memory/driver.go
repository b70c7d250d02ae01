package memory

import (
	"context"
	"sort"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// DriverRepository is the in-memory repository.DriverRepository.
type DriverRepository struct {
	s *Store
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneDriver(d), nil
}

// UpdateLocation records the driver's last known position.
// New drivers start out available.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[id]
	if !ok {
		d = &domain.Driver{ID: id, Available: true}
		r.s.drivers[id] = d
	}
	d.Lat = &lat
	d.Lng = &lng
	d.LocationUpdatedAt = &at
	return nil
}

// ListAvailable returns available drivers that have a known location.
func (r *DriverRepository) ListAvailable(ctx context.Context) ([]*domain.Driver, error) {
	r.s.mu.RLock()
	var drivers []*domain.Driver
	for _, d := range r.s.drivers {
		if d.Available && d.HasLocation() {
			drivers = append(drivers, cloneDriver(d))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
	return drivers, nil
}

// FeedbackRepository is the in-memory repository.FeedbackRepository.
type FeedbackRepository struct {
	s *Store
}

// Create stores feedback, rejecting a second entry for the same ride and role.
func (r *FeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := feedbackKey{rideID: fb.RideID, role: fb.Role}
	if _, exists := r.s.feedback[key]; exists {
		return repository.ErrDuplicate
	}
	stored := *fb
	r.s.feedback[key] = &stored
	return nil
}

// ListByRide returns the feedback left for a ride.
func (r *FeedbackRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Feedback, error) {
	r.s.mu.RLock()
	var out []*domain.Feedback
	for key, fb := range r.s.feedback {
		if key.rideID == rideID {
			c := *fb
			out = append(out, &c)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Role > out[j].Role })
	return out, nil
}

func cloneDriver(d *domain.Driver) *domain.Driver {
	c := *d
	if d.Lat != nil {
		v := *d.Lat
		c.Lat = &v
	}
	if d.Lng != nil {
		v := *d.Lng
		c.Lng = &v
	}
	if d.LocationUpdatedAt != nil {
		v := *d.LocationUpdatedAt
		c.LocationUpdatedAt = &v
	}
	return &c
}

var (
	_ repository.DriverRepository   = (*DriverRepository)(nil)
	_ repository.FeedbackRepository = (*FeedbackRepository)(nil)
)
