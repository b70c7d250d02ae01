package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ridehail/internal/repository"
)

const (
	codeUniqueViolation   = "23505"
	codeLockNotAvailable  = "55P03"
	codeDeadlockDetected  = "40P01"
	codeSerializationFail = "40001"
)

// classifyError maps PostgreSQL errors onto repository errors.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFail:
		return fmt.Errorf("%w: %s", repository.ErrBusy, pqErr.Message)
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Message)
	default:
		return err
	}
}
