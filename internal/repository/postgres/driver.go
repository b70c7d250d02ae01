package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT id, available, current_lat, current_lng, location_updated_at FROM drivers WHERE id = $1`

	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return driver, nil
}

// UpdateLocation upserts the driver's last known position. Availability is
// only set on insert.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, lat, lng float64, at time.Time) error {
	query := `
		INSERT INTO drivers (id, available, current_lat, current_lng, location_updated_at)
		VALUES ($1, TRUE, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET current_lat = EXCLUDED.current_lat,
			current_lng = EXCLUDED.current_lng,
			location_updated_at = EXCLUDED.location_updated_at
	`
	_, err := r.q.ExecContext(ctx, query, id, lat, lng, at)
	return classifyError(err)
}

// SetAvailable upserts the driver's availability flag.
func (r *DriverRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	query := `
		INSERT INTO drivers (id, available) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET available = EXCLUDED.available
	`
	_, err := r.q.ExecContext(ctx, query, id, available)
	return classifyError(err)
}

// ListAvailable returns available drivers that have reported a location.
func (r *DriverRepository) ListAvailable(ctx context.Context) ([]*domain.Driver, error) {
	query := `
		SELECT id, available, current_lat, current_lng, location_updated_at
		FROM drivers
		WHERE available AND current_lat IS NOT NULL AND current_lng IS NOT NULL
		ORDER BY id
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, classifyError(err)
		}
		drivers = append(drivers, driver)
	}
	return drivers, classifyError(rows.Err())
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var (
		driver    domain.Driver
		lat, lng  sql.NullFloat64
		updatedAt sql.NullTime
	)
	if err := row.Scan(&driver.ID, &driver.Available, &lat, &lng, &updatedAt); err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		driver.Lat = &lat.Float64
		driver.Lng = &lng.Float64
	}
	if updatedAt.Valid {
		driver.LocationUpdatedAt = &updatedAt.Time
	}
	return &driver, nil
}
