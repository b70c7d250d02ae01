package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/service"
)

// PaymentHandler handles fare, payment and receipt requests.
type PaymentHandler struct {
	fareService    *service.FareService
	paymentService *service.PaymentService
	receiptService *service.ReceiptService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(
	fareService *service.FareService,
	paymentService *service.PaymentService,
	receiptService *service.ReceiptService,
) *PaymentHandler {
	return &PaymentHandler{
		fareService:    fareService,
		paymentService: paymentService,
		receiptService: receiptService,
	}
}

// MarkPaidRequest is the HTTP request body for recording a payment.
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// FareResponse is the HTTP response for a fare calculation.
type FareResponse struct {
	RideID          string  `json:"ride_id"`
	Fare            float64 `json:"fare"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	Status          string  `json:"status"`
}

// ReceiptResponse is the HTTP representation of a receipt.
type ReceiptResponse struct {
	RideID          string  `json:"ride_id"`
	RiderID         string  `json:"rider_id"`
	DriverID        string  `json:"driver_id"`
	PickupAddress   string  `json:"pickup_address"`
	DropoffAddress  string  `json:"dropoff_address"`
	DistanceKm      float64 `json:"distance_km"`
	BaseFare        float64 `json:"base_fare"`
	DistanceFare    float64 `json:"distance_fare"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
	SurgeAmount     float64 `json:"surge_amount"`
	TotalFare       float64 `json:"total_fare"`
	PaymentStatus   string  `json:"payment_status"`
	PaymentMethod   string  `json:"payment_method,omitempty"`
	PaidAt          *string `json:"paid_at"`
	DurationMinutes int     `json:"duration_minutes"`
	RequestedAt     string  `json:"requested_at"`
	CompletedAt     string  `json:"completed_at"`
}

// CalculateFare handles POST /v1/rides/:id/fare
func (h *PaymentHandler) CalculateFare(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	ride, err := h.fareService.CalculateFare(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, FareResponse{
		RideID:          ride.ID,
		Fare:            *ride.Fare,
		SurgeMultiplier: ride.SurgeMultiplier,
		Status:          string(ride.Status),
	})
}

// MarkPaid handles PATCH /v1/rides/:id/payment
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	ride, err := h.paymentService.MarkPaid(c.Request.Context(), id, c.Param("id"), req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetReceipt handles GET /v1/rides/:id/receipt. ?format=text returns plain text.
func (h *PaymentHandler) GetReceipt(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, service.FormatReceipt(receipt))
		return
	}

	respondJSON(c, http.StatusOK, ReceiptResponse{
		RideID:          receipt.RideID,
		RiderID:         receipt.RiderID,
		DriverID:        receipt.DriverID,
		PickupAddress:   receipt.PickupAddress,
		DropoffAddress:  receipt.DropoffAddress,
		DistanceKm:      receipt.Distance,
		BaseFare:        receipt.BaseFare,
		DistanceFare:    receipt.DistanceFare,
		SurgeMultiplier: receipt.SurgeMultiplier,
		SurgeAmount:     receipt.SurgeAmount,
		TotalFare:       receipt.TotalFare,
		PaymentStatus:   string(receipt.PaymentStatus),
		PaymentMethod:   string(receipt.PaymentMethod),
		PaidAt:          formatTimePtr(receipt.PaidAt),
		DurationMinutes: int(receipt.Duration.Minutes()),
		RequestedAt:     formatTime(receipt.RequestedAt),
		CompletedAt:     formatTime(receipt.CompletedAt),
	})
}
