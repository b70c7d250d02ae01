package service

import (
	"ridehail/internal/domain"
	"ridehail/internal/identity"
)

func requireRider(caller identity.Identity) (identity.Rider, error) {
	r, ok := caller.(identity.Rider)
	if !ok {
		return identity.Rider{}, forbidden("only riders can do this")
	}
	return r, nil
}

func requireDriver(caller identity.Identity) (identity.Driver, error) {
	d, ok := caller.(identity.Driver)
	if !ok {
		return identity.Driver{}, forbidden("only drivers can do this")
	}
	return d, nil
}

// isParticipant reports whether caller is the ride's rider or its assigned driver.
func isParticipant(ride *domain.Ride, caller identity.Identity) bool {
	switch c := caller.(type) {
	case identity.Rider:
		return ride.RiderID == c.ID
	case identity.Driver:
		return ride.IsAssignedTo(c.ID)
	}
	return false
}

// canView reports whether caller may read the ride. Staff see everything and
// drivers may look at rides still open for acceptance.
func canView(ride *domain.Ride, caller identity.Identity) bool {
	switch caller.(type) {
	case identity.Staff:
		return true
	case identity.Driver:
		if ride.Status == domain.RideStatusRequested && !ride.HasDriver() {
			return true
		}
	}
	return isParticipant(ride, caller)
}
