package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const rideColumns = `id, rider_id, driver_id, pickup_address, dropoff_address,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, status, surge_multiplier, fare,
	payment_status, payment_method, paid_at, requested_at, updated_at, completed_at`

// RideRepository runs ride queries against a Querier.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, rider_id, pickup_address, dropoff_address, pickup_lat, pickup_lng,
			dropoff_lat, dropoff_lng, status, surge_multiplier, payment_status, requested_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		ride.PickupAddress,
		ride.DropoffAddress,
		ride.PickupLat,
		ride.PickupLng,
		ride.DropoffLat,
		ride.DropoffLng,
		ride.Status,
		ride.SurgeMultiplier,
		ride.PaymentStatus,
		ride.RequestedAt,
		ride.UpdatedAt,
	)
	return classifyError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves a ride and locks its row until the transaction ends.
func (r *RideRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *RideRepository) getOne(ctx context.Context, query, id string) (*domain.Ride, error) {
	if !isUUID(id) {
		return nil, repository.ErrNotFound
	}
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return ride, nil
}

// ListAvailable returns unclaimed REQUESTED rides, oldest first.
func (r *RideRepository) ListAvailable(ctx context.Context, page repository.Page) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE status = 'REQUESTED' AND driver_id IS NULL
		ORDER BY requested_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limitOrAll(page.Limit), page.Offset)
}

// ListHistory returns finished rides of a rider or driver, newest first.
func (r *RideRepository) ListHistory(ctx context.Context, filter repository.HistoryFilter, page repository.Page) ([]*domain.Ride, int, error) {
	column, value := "rider_id", filter.RiderID
	if filter.DriverID != "" {
		column, value = "driver_id", filter.DriverID
	}

	where := column + ` = $1 AND status IN ('COMPLETED', 'CANCELLED')`

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rides WHERE `+where, value).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE ` + where + `
		ORDER BY requested_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rides, err := r.list(ctx, query, value, limitOrAll(page.Limit), page.Offset)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// Touch sets updated_at on a ride.
func (r *RideRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if !isUUID(id) {
		return repository.ErrNotFound
	}
	res, err := r.q.ExecContext(ctx, `UPDATE rides SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return classifyError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ConditionalUpdate applies upd only while the ride's status equals expected.
func (r *RideRepository) ConditionalUpdate(ctx context.Context, id string, expected domain.RideStatus, upd repository.RideUpdate) (bool, error) {
	args := []any{id, expected}
	var sets []string
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.DriverID != nil {
		set("driver_id", *upd.DriverID)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.Fare != nil {
		set("fare", *upd.Fare)
	}
	if upd.PaymentStatus != nil {
		set("payment_status", *upd.PaymentStatus)
	}
	if upd.PaymentMethod != nil {
		set("payment_method", *upd.PaymentMethod)
	}
	if upd.PaidAt != nil {
		set("paid_at", *upd.PaidAt)
	}
	if upd.CompletedAt != nil {
		set("completed_at", *upd.CompletedAt)
	}
	updatedAt := upd.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set("updated_at", updatedAt)

	query := `UPDATE rides SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND status = $2`
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, classifyError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	rides := []*domain.Ride{}
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, classifyError(err)
		}
		rides = append(rides, ride)
	}
	return rides, classifyError(rows.Err())
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var (
		ride          domain.Ride
		driverID      sql.NullString
		fare          sql.NullFloat64
		paymentMethod sql.NullString
		paidAt        sql.NullTime
		completedAt   sql.NullTime
	)

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.PickupAddress,
		&ride.DropoffAddress,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DropoffLat,
		&ride.DropoffLng,
		&ride.Status,
		&ride.SurgeMultiplier,
		&fare,
		&ride.PaymentStatus,
		&paymentMethod,
		&paidAt,
		&ride.RequestedAt,
		&ride.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		ride.DriverID = &driverID.String
	}
	if fare.Valid {
		ride.Fare = &fare.Float64
	}
	if paymentMethod.Valid {
		m := domain.PaymentMethod(paymentMethod.String)
		ride.PaymentMethod = &m
	}
	if paidAt.Valid {
		ride.PaidAt = &paidAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = &completedAt.Time
	}
	return &ride, nil
}
