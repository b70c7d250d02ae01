package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrBusy is returned when a row lock could not be acquired in time.
	// Callers may retry with backoff.
	ErrBusy = errors.New("resource busy, retry later")

	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate entity")
)
