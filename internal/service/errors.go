package service

import (
	"errors"
	"fmt"

	"ridehail/internal/repository"
)

var (
	// ErrNotFound is returned when a ride or driver does not exist.
	ErrNotFound = repository.ErrNotFound

	// ErrBusy is returned when a ride lock could not be acquired in time. Retryable.
	ErrBusy = repository.ErrBusy

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation error")

	// ErrInvalidTransition is returned when a ride is not in a state that allows the operation.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrAlreadyTaken is returned to every driver that loses an acceptance race.
	ErrAlreadyTaken = errors.New("ride already accepted")

	// ErrForbidden is returned when the caller lacks the role or ownership required.
	ErrForbidden = errors.New("forbidden")
)

var (
	// ErrRideNotOngoing is returned when tracking or pinging a ride that is not ONGOING.
	ErrRideNotOngoing = fmt.Errorf("%w: ride is not ongoing", ErrInvalidTransition)

	// ErrRideNotCompleted is returned by post-completion operations on unfinished rides.
	ErrRideNotCompleted = fmt.Errorf("%w: ride is not completed", ErrInvalidTransition)

	// ErrFareAlreadySet is returned when the fare was already calculated.
	ErrFareAlreadySet = fmt.Errorf("%w: fare already calculated", ErrInvalidTransition)

	// ErrFareNotCalculated is returned when a receipt is requested before the fare exists.
	ErrFareNotCalculated = fmt.Errorf("%w: fare not calculated yet", ErrInvalidTransition)

	// ErrAlreadyPaid is returned when marking a paid ride as paid again.
	ErrAlreadyPaid = fmt.Errorf("%w: ride already paid", ErrInvalidTransition)

	// ErrFeedbackExists is returned on a second feedback for the same ride and role.
	ErrFeedbackExists = fmt.Errorf("%w: feedback already submitted", ErrInvalidTransition)

	// ErrNoDriverAssigned is returned when tracking a ride nobody accepted.
	ErrNoDriverAssigned = fmt.Errorf("%w: no driver assigned", ErrNotFound)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func invalidTransition(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidTransition}, args...)...)
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}
