package postgres

import (
	"context"
	"database/sql"

	"ridehail/internal/domain"
)

// FeedbackRepository is a PostgreSQL implementation of repository.FeedbackRepository.
type FeedbackRepository struct {
	q Querier
}

// NewFeedbackRepository creates a new PostgreSQL feedback repository.
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{q: db}
}

// Create stores feedback. The (ride_id, role) unique key rejects a second entry.
func (r *FeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	query := `
		INSERT INTO ride_feedback (id, ride_id, role, submitted_by, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query, fb.ID, fb.RideID, fb.Role, fb.SubmittedBy, fb.Rating, fb.Comment, fb.CreatedAt)
	return classifyError(err)
}

// ListByRide returns the feedback left for a ride.
func (r *FeedbackRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Feedback, error) {
	if !isUUID(rideID) {
		return nil, nil
	}
	query := `
		SELECT id, ride_id, role, submitted_by, rating, comment, created_at
		FROM ride_feedback WHERE ride_id = $1 ORDER BY role DESC
	`
	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	var out []*domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		if err := rows.Scan(&fb.ID, &fb.RideID, &fb.Role, &fb.SubmittedBy, &fb.Rating, &fb.Comment, &fb.CreatedAt); err != nil {
			return nil, classifyError(err)
		}
		out = append(out, &fb)
	}
	return out, classifyError(rows.Err())
}
