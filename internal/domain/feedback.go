package domain

import "time"

// FeedbackRole identifies which party of a ride left the feedback.
type FeedbackRole string

const (
	FeedbackRoleRider  FeedbackRole = "RIDER"
	FeedbackRoleDriver FeedbackRole = "DRIVER"
)

// Feedback is a rating left by one party after a completed ride.
// At most one exists per (RideID, Role).
type Feedback struct {
	ID          string
	RideID      string
	Role        FeedbackRole
	SubmittedBy string
	Rating      int
	Comment     string
	CreatedAt   time.Time
}
