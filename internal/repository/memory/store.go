// Package memory provides an in-process implementation of the repository
// interfaces. Each ride has its own lock; transitions wait on it for at most
// the configured timeout and stage their writes until commit. A ride's lock
// entry only exists while some transaction holds or waits for it.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// rideLock is a one-slot channel plus the number of transactions holding
// or waiting for it. The entry is dropped when refs reaches zero.
type rideLock struct {
	ch   chan struct{}
	refs int
}

type feedbackKey struct {
	rideID string
	role   domain.FeedbackRole
}

// Store holds all in-memory state.
type Store struct {
	mu          sync.RWMutex
	rides       map[string]*domain.Ride
	locks       map[string]*rideLock
	drivers     map[string]*domain.Driver
	feedback    map[feedbackKey]*domain.Feedback
	lockTimeout time.Duration
}

// New creates an empty Store. A zero lockTimeout waits until the context ends.
func New(lockTimeout time.Duration) *Store {
	return &Store{
		rides:       make(map[string]*domain.Ride),
		locks:       make(map[string]*rideLock),
		drivers:     make(map[string]*domain.Driver),
		feedback:    make(map[feedbackKey]*domain.Feedback),
		lockTimeout: lockTimeout,
	}
}

// Rides returns the ride store view.
func (s *Store) Rides() *RideStore { return &RideStore{s: s} }

// Drivers returns the driver repository view.
func (s *Store) Drivers() *DriverRepository { return &DriverRepository{s: s} }

// Feedback returns the feedback repository view.
func (s *Store) Feedback() *FeedbackRepository { return &FeedbackRepository{s: s} }

// lockRef returns the lock for id and registers the caller as a user of it.
func (s *Store) lockRef(id string) *rideLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &rideLock{ch: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	return l
}

// unref drops the caller's reference and forgets the lock once unused.
func (s *Store) unref(id string, l *rideLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 && s.locks[id] == l {
		delete(s.locks, id)
	}
}

func (s *Store) acquire(ctx context.Context, id string) error {
	l := s.lockRef(id)

	select {
	case l.ch <- struct{}{}:
		return nil
	default:
	}

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-timeout:
		s.unref(id, l)
		return repository.ErrBusy
	case <-ctx.Done():
		s.unref(id, l)
		return ctx.Err()
	}
}

func (s *Store) release(id string) {
	s.mu.Lock()
	l := s.locks[id]
	s.mu.Unlock()

	<-l.ch
	s.unref(id, l)
}

// lockCount reports how many ride locks are currently tracked.
func (s *Store) lockCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.locks)
}

// RideStore is the in-memory repository.RideStore.
type RideStore struct {
	s *Store
}

// Create persists a new ride.
func (r *RideStore) Create(ctx context.Context, ride *domain.Ride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.rides[ride.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.rides[ride.ID] = ride.Clone()
	return nil
}

// GetByID retrieves a ride by ID.
func (r *RideStore) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ride, ok := r.s.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ride.Clone(), nil
}

// ListAvailable returns unclaimed REQUESTED rides, oldest first.
func (r *RideStore) ListAvailable(ctx context.Context, page repository.Page) ([]*domain.Ride, error) {
	r.s.mu.RLock()
	var rides []*domain.Ride
	for _, ride := range r.s.rides {
		if ride.Status == domain.RideStatusRequested && !ride.HasDriver() {
			rides = append(rides, ride.Clone())
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rides, func(i, j int) bool {
		if rides[i].RequestedAt.Equal(rides[j].RequestedAt) {
			return rides[i].ID < rides[j].ID
		}
		return rides[i].RequestedAt.Before(rides[j].RequestedAt)
	})
	return paginate(rides, page), nil
}

// ListHistory returns finished rides for a rider or driver, newest first.
func (r *RideStore) ListHistory(ctx context.Context, filter repository.HistoryFilter, page repository.Page) ([]*domain.Ride, int, error) {
	r.s.mu.RLock()
	var rides []*domain.Ride
	for _, ride := range r.s.rides {
		if filter.Matches(ride) {
			rides = append(rides, ride.Clone())
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rides, func(i, j int) bool {
		if rides[i].RequestedAt.Equal(rides[j].RequestedAt) {
			return rides[i].ID > rides[j].ID
		}
		return rides[i].RequestedAt.After(rides[j].RequestedAt)
	})
	return paginate(rides, page), len(rides), nil
}

// Touch sets updated_at on a ride.
func (r *RideStore) Touch(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ride, ok := r.s.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	ride.UpdatedAt = at
	return nil
}

// InTx runs fn with a transaction handle and commits its staged writes if fn succeeds.
func (r *RideStore) InTx(ctx context.Context, fn func(tx repository.RideTx) error) error {
	tx := &rideTx{
		s:      r.s,
		held:   make(map[string]struct{}),
		staged: make(map[string]*domain.Ride),
		dirty:  make(map[string]struct{}),
		avail:  make(map[string]bool),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type rideTx struct {
	s      *Store
	held   map[string]struct{}
	staged map[string]*domain.Ride
	dirty  map[string]struct{}
	avail  map[string]bool
}

func (tx *rideTx) GetForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	if ride, ok := tx.staged[id]; ok {
		return ride.Clone(), nil
	}

	tx.s.mu.RLock()
	_, exists := tx.s.rides[id]
	tx.s.mu.RUnlock()
	if !exists {
		return nil, repository.ErrNotFound
	}

	if err := tx.s.acquire(ctx, id); err != nil {
		return nil, err
	}
	tx.held[id] = struct{}{}

	tx.s.mu.RLock()
	ride := tx.s.rides[id].Clone()
	tx.s.mu.RUnlock()

	tx.staged[id] = ride
	return ride.Clone(), nil
}

func (tx *rideTx) ConditionalUpdate(ctx context.Context, id string, expected domain.RideStatus, upd repository.RideUpdate) (bool, error) {
	if _, ok := tx.staged[id]; !ok {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return false, err
		}
	}

	ride := tx.staged[id]
	if ride.Status != expected {
		return false, nil
	}
	upd.Apply(ride)
	tx.dirty[id] = struct{}{}
	return true, nil
}

func (tx *rideTx) SetDriverAvailable(ctx context.Context, driverID string, available bool) error {
	tx.avail[driverID] = available
	return nil
}

func (tx *rideTx) commit() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()

	for id := range tx.dirty {
		tx.s.rides[id] = tx.staged[id].Clone()
	}
	for driverID, available := range tx.avail {
		d, ok := tx.s.drivers[driverID]
		if !ok {
			d = &domain.Driver{ID: driverID}
			tx.s.drivers[driverID] = d
		}
		d.Available = available
	}
}

func (tx *rideTx) release() {
	for id := range tx.held {
		tx.s.release(id)
	}
	tx.held = nil
}

func paginate(rides []*domain.Ride, page repository.Page) []*domain.Ride {
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Offset >= len(rides) {
		return []*domain.Ride{}
	}
	rides = rides[page.Offset:]
	if page.Limit > 0 && page.Limit < len(rides) {
		rides = rides[:page.Limit]
	}
	return rides
}

var _ repository.RideStore = (*RideStore)(nil)
