package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// FeedbackHandler handles HTTP requests for ride feedback.
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// SubmitFeedbackRequest is the HTTP request body for leaving feedback.
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// FeedbackResponse is the HTTP representation of feedback.
type FeedbackResponse struct {
	ID          string `json:"id"`
	RideID      string `json:"ride_id"`
	Role        string `json:"role"`
	SubmittedBy string `json:"submitted_by"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toFeedbackResponse(fb *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:          fb.ID,
		RideID:      fb.RideID,
		Role:        string(fb.Role),
		SubmittedBy: fb.SubmittedBy,
		Rating:      fb.Rating,
		Comment:     fb.Comment,
		CreatedAt:   formatTime(fb.CreatedAt),
	}
}

// Submit handles POST /v1/rides/:id/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	fb, err := h.feedbackService.Submit(c.Request.Context(), id, c.Param("id"), service.SubmitFeedbackRequest{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toFeedbackResponse(fb))
}

// List handles GET /v1/rides/:id/feedback
func (h *FeedbackHandler) List(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	list, err := h.feedbackService.List(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]FeedbackResponse, 0, len(list))
	for _, fb := range list {
		response = append(response, toFeedbackResponse(fb))
	}
	respondJSON(c, http.StatusOK, response)
}
