package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService     *service.RideService
	matchingService *service.MatchingService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, matchingService *service.MatchingService) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		matchingService: matchingService,
	}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	PickupAddress  string   `json:"pickup_address"`
	DropoffAddress string   `json:"dropoff_address"`
	PickupLat      *float64 `json:"pickup_lat"`
	PickupLng      *float64 `json:"pickup_lng"`
	DropoffLat     *float64 `json:"dropoff_lat"`
	DropoffLng     *float64 `json:"dropoff_lng"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID              string   `json:"id"`
	RiderID         string   `json:"rider_id"`
	DriverID        *string  `json:"driver_id"`
	PickupAddress   string   `json:"pickup_address"`
	DropoffAddress  string   `json:"dropoff_address"`
	PickupLat       float64  `json:"pickup_lat"`
	PickupLng       float64  `json:"pickup_lng"`
	DropoffLat      float64  `json:"dropoff_lat"`
	DropoffLng      float64  `json:"dropoff_lng"`
	Status          string   `json:"status"`
	SurgeMultiplier float64  `json:"surge_multiplier"`
	SurgeActive     bool     `json:"surge_active"`
	Fare            *float64 `json:"fare"`
	PaymentStatus   string   `json:"payment_status"`
	PaymentMethod   *string  `json:"payment_method"`
	PaidAt          *string  `json:"paid_at"`
	RequestedAt     string   `json:"requested_at"`
	UpdatedAt       string   `json:"updated_at"`
	CompletedAt     *string  `json:"completed_at"`
}

// TrackResponse is the HTTP response for tracking an ONGOING ride.
type TrackResponse struct {
	RideID            string   `json:"ride_id"`
	Status            string   `json:"status"`
	DriverID          string   `json:"driver_id"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	LocationUpdatedAt *string  `json:"location_updated_at"`
}

// HistoryResponse is one page of finished rides.
type HistoryResponse struct {
	Rides    []RideResponse `json:"rides"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toRideResponse(ride *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:              ride.ID,
		RiderID:         ride.RiderID,
		DriverID:        ride.DriverID,
		PickupAddress:   ride.PickupAddress,
		DropoffAddress:  ride.DropoffAddress,
		PickupLat:       ride.PickupLat,
		PickupLng:       ride.PickupLng,
		DropoffLat:      ride.DropoffLat,
		DropoffLng:      ride.DropoffLng,
		Status:          string(ride.Status),
		SurgeMultiplier: ride.SurgeMultiplier,
		SurgeActive:     ride.SurgeMultiplier > 1.0,
		Fare:            ride.Fare,
		PaymentStatus:   string(ride.PaymentStatus),
		PaidAt:          formatTimePtr(ride.PaidAt),
		RequestedAt:     formatTime(ride.RequestedAt),
		UpdatedAt:       formatTime(ride.UpdatedAt),
		CompletedAt:     formatTimePtr(ride.CompletedAt),
	}
	if ride.PaymentMethod != nil {
		m := string(*ride.PaymentMethod)
		resp.PaymentMethod = &m
	}
	return resp
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResponse(r))
	}
	return out
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.PickupLat == nil || req.PickupLng == nil || req.DropoffLat == nil || req.DropoffLng == nil {
		respondBadRequest(c, "pickup_lat, pickup_lng, dropoff_lat and dropoff_lng are required")
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), id, service.CreateRideRequest{
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		PickupLat:      *req.PickupLat,
		PickupLng:      *req.PickupLng,
		DropoffLat:     *req.DropoffLat,
		DropoffLng:     *req.DropoffLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// ListAvailable handles GET /v1/rides/available
func (h *RideHandler) ListAvailable(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	rides, err := h.rideService.ListAvailable(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	ride, err := h.matchingService.Accept(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	ride, err := h.rideService.CompleteRide(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// TrackRide handles GET /v1/rides/:id/track
func (h *RideHandler) TrackRide(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	result, err := h.rideService.TrackRide(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, TrackResponse{
		RideID:            result.RideID,
		Status:            string(result.Status),
		DriverID:          result.DriverID,
		Lat:               result.Lat,
		Lng:               result.Lng,
		LocationUpdatedAt: formatTimePtr(result.LocationUpdatedAt),
	})
}

// History handles GET /v1/riders/me/history and GET /v1/drivers/me/history
func (h *RideHandler) History(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "page_size", 0)
	if !ok {
		return
	}

	result, err := h.rideService.History(c.Request.Context(), id, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, HistoryResponse{
		Rides:    toRideResponses(result.Rides),
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}
