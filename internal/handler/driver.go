package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// UpdateLocationRequest is the HTTP request body for updating driver location.
type UpdateLocationRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	RideID string   `json:"ride_id,omitempty"`
}

// DriverLocationResponse is the HTTP response after a location ping.
type DriverLocationResponse struct {
	DriverID          string   `json:"driver_id"`
	Available         bool     `json:"available"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	LocationUpdatedAt *string  `json:"location_updated_at"`
}

// NearbyDriverResponse is one entry of a nearby-driver lookup.
type NearbyDriverResponse struct {
	DriverID   string  `json:"driver_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km"`
}

// UpdateLocation handles POST /v1/drivers/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondBadRequest(c, "lat and lng are required")
		return
	}

	driver, err := h.driverService.UpdateLocation(c.Request.Context(), id, service.UpdateLocationRequest{
		Lat:    *req.Lat,
		Lng:    *req.Lng,
		RideID: req.RideID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DriverLocationResponse{
		DriverID:          driver.ID,
		Available:         driver.Available,
		Lat:               driver.Lat,
		Lng:               driver.Lng,
		LocationUpdatedAt: formatTimePtr(driver.LocationUpdatedAt),
	})
}

// Nearby handles GET /v1/drivers/nearby?lat=..&lng=..&radius_km=..
func (h *DriverHandler) Nearby(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	lat, ok := queryFloat(c, "lat", true)
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "lng", true)
	if !ok {
		return
	}
	radius, ok := queryFloat(c, "radius_km", false)
	if !ok {
		return
	}

	nearby, err := h.driverService.NearbyDrivers(c.Request.Context(), id, lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NearbyDriverResponse, 0, len(nearby))
	for _, loc := range nearby {
		response = append(response, NearbyDriverResponse{
			DriverID:   loc.DriverID,
			Lat:        loc.Lat,
			Lng:        loc.Lng,
			DistanceKm: loc.DistanceKm,
		})
	}
	respondJSON(c, http.StatusOK, response)
}
