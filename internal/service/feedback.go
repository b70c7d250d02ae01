package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ridehail/internal/domain"
	"ridehail/internal/identity"
	"ridehail/internal/repository"
)

const maxCommentLength = 1000

// FeedbackService accepts one rating per party once a ride is completed.
type FeedbackService struct {
	rides    repository.RideStore
	feedback repository.FeedbackRepository
	notifier *NotificationService
	log      logrus.FieldLogger
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(
	rides repository.RideStore,
	feedback repository.FeedbackRepository,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *FeedbackService {
	return &FeedbackService{
		rides:    rides,
		feedback: feedback,
		notifier: notifier,
		log:      log,
	}
}

// SubmitFeedbackRequest contains a rating and an optional comment.
type SubmitFeedbackRequest struct {
	Rating  int
	Comment string
}

// Submit stores the caller's feedback for a COMPLETED ride.
func (s *FeedbackService) Submit(ctx context.Context, caller identity.Identity, rideID string, req SubmitFeedbackRequest) (*domain.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, validationError("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, validationError("comment exceeds %d characters", maxCommentLength)
	}
	if rideID == "" {
		return nil, validationError("ride id is required")
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}

	var role domain.FeedbackRole
	switch c := caller.(type) {
	case identity.Rider:
		if ride.RiderID != c.ID {
			return nil, forbidden("not a participant of this ride")
		}
		role = domain.FeedbackRoleRider
	case identity.Driver:
		if !ride.IsAssignedTo(c.ID) {
			return nil, forbidden("not a participant of this ride")
		}
		role = domain.FeedbackRoleDriver
	default:
		return nil, forbidden("only ride participants can leave feedback")
	}

	fb := &domain.Feedback{
		ID:          uuid.New().String(),
		RideID:      ride.ID,
		Role:        role,
		SubmittedBy: caller.Subject(),
		Rating:      req.Rating,
		Comment:     comment,
		CreatedAt:   time.Now(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFeedbackExists
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id": ride.ID,
		"role":    role,
		"rating":  fb.Rating,
	}).Info("feedback submitted")
	s.notifier.NotifyFeedbackSubmitted(ctx, ride, fb)

	return fb, nil
}

// List returns the feedback left on a ride the caller may view.
func (s *FeedbackService) List(ctx context.Context, caller identity.Identity, rideID string) ([]*domain.Feedback, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if _, staff := caller.(identity.Staff); !staff && !isParticipant(ride, caller) {
		return nil, forbidden("not allowed to view feedback for this ride")
	}
	return s.feedback.ListByRide(ctx, ride.ID)
}
