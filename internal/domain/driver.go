package domain

import "time"

// Driver is the part of a driver profile the ride lifecycle reads and writes.
type Driver struct {
	ID                string
	Available         bool
	Lat               *float64
	Lng               *float64
	LocationUpdatedAt *time.Time
}

// HasLocation reports whether the driver has ever reported a position.
func (d *Driver) HasLocation() bool {
	return d.Lat != nil && d.Lng != nil
}
