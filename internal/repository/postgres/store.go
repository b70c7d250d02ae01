package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ridehail/internal/repository"
)

// RideStore is a PostgreSQL implementation of repository.RideStore.
// Row locks taken inside InTx wait at most lockTimeout.
type RideStore struct {
	*RideRepository
	db          *sql.DB
	lockTimeout time.Duration
}

// NewRideStore creates a new PostgreSQL ride store.
func NewRideStore(db *sql.DB, lockTimeout time.Duration) *RideStore {
	return &RideStore{
		RideRepository: NewRideRepository(db),
		db:             db,
		lockTimeout:    lockTimeout,
	}
}

// InTx runs fn inside a database transaction.
func (s *RideStore) InTx(ctx context.Context, fn func(tx repository.RideTx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.lockTimeout > 0 {
		// SET cannot take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if err = fn(txScope{
		RideRepository: NewRideRepositoryWithTx(tx),
		drivers:        NewDriverRepositoryWithTx(tx),
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return classifyError(err)
	}
	return nil
}

// txScope is the repository.RideTx handed to InTx callbacks.
type txScope struct {
	*RideRepository
	drivers *DriverRepository
}

func (t txScope) SetDriverAvailable(ctx context.Context, driverID string, available bool) error {
	return t.drivers.SetAvailable(ctx, driverID, available)
}

var (
	_ repository.RideStore          = (*RideStore)(nil)
	_ repository.RideTx             = txScope{}
	_ repository.DriverRepository   = (*DriverRepository)(nil)
	_ repository.FeedbackRepository = (*FeedbackRepository)(nil)
)
