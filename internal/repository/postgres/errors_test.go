package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"

	"ridehail/internal/repository"
)

func TestClassifyError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"lock not available", &pq.Error{Code: codeLockNotAvailable}, repository.ErrBusy},
		{"deadlock", &pq.Error{Code: codeDeadlockDetected}, repository.ErrBusy},
		{"serialization failure", &pq.Error{Code: codeSerializationFail}, repository.ErrBusy},
		{"unique violation", &pq.Error{Code: codeUniqueViolation}, repository.ErrDuplicate},
		{"other pq error", &pq.Error{Code: "42P01"}, nil},
		{"plain error", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			switch {
			case tt.err == nil:
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
			case tt.want == nil:
				if got != tt.err {
					t.Errorf("expected error unchanged, got %v", got)
				}
			case !errors.Is(got, tt.want):
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// failingQuerier fails every statement with err.
type failingQuerier struct {
	err error
}

func (q failingQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, q.err
}

func (q failingQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func (q failingQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, q.err
}

func TestDriverRepository_ClassifiesQueryErrors(t *testing.T) {
	ctx := context.Background()
	repo := &DriverRepository{q: failingQuerier{err: &pq.Error{Code: codeLockNotAvailable, Message: "canceling statement due to lock timeout"}}}

	if _, err := repo.ListAvailable(ctx); !errors.Is(err, repository.ErrBusy) {
		t.Errorf("ListAvailable: expected ErrBusy, got %v", err)
	}
	if err := repo.SetAvailable(ctx, "d1", true); !errors.Is(err, repository.ErrBusy) {
		t.Errorf("SetAvailable: expected ErrBusy, got %v", err)
	}

	feedback := &FeedbackRepository{q: failingQuerier{err: &pq.Error{Code: codeDeadlockDetected}}}
	if _, err := feedback.ListByRide(ctx, "6f1c1d2e-8a4b-4c55-9d0e-3b2a1f0e9c8d"); !errors.Is(err, repository.ErrBusy) {
		t.Errorf("ListByRide: expected ErrBusy, got %v", err)
	}
}
