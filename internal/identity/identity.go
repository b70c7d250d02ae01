// Package identity models the verified caller of an API request.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Role is the capability a caller acts with.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
	RoleStaff  Role = "staff"
)

var (
	// ErrUnknownRole is returned when a role claim is not recognised.
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnauthenticated is returned when a request carries no valid identity.
	ErrUnauthenticated = errors.New("authentication required")
)

// Identity is one of Rider, Driver or Staff.
type Identity interface {
	Role() Role
	Subject() string
	sealed()
}

// Rider is a caller acting as the rider with the given profile ID.
type Rider struct{ ID string }

// Driver is a caller acting as the driver with the given profile ID.
type Driver struct{ ID string }

// Staff is an operator with read access to every ride.
type Staff struct{ UserID string }

func (Rider) Role() Role  { return RoleRider }
func (Driver) Role() Role { return RoleDriver }
func (Staff) Role() Role  { return RoleStaff }

func (r Rider) Subject() string  { return r.ID }
func (d Driver) Subject() string { return d.ID }
func (s Staff) Subject() string  { return s.UserID }

func (Rider) sealed()  {}
func (Driver) sealed() {}
func (Staff) sealed()  {}

// New builds an Identity from a role and subject ID.
func New(role Role, subject string) (Identity, error) {
	if subject == "" {
		return nil, errors.New("empty subject")
	}
	switch role {
	case RoleRider:
		return Rider{ID: subject}, nil
	case RoleDriver:
		return Driver{ID: subject}, nil
	case RoleStaff:
		return Staff{UserID: subject}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
