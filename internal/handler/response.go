package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridehail/internal/identity"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// Error codes returned alongside the message so clients can tell
// failures that share an HTTP status apart.
const (
	CodeNotFound          = "not_found"
	CodeValidation        = "validation_error"
	CodeInvalidTransition = "invalid_transition"
	CodeAlreadyTaken      = "already_taken"
	CodeForbidden         = "forbidden"
	CodeUnauthenticated   = "unauthenticated"
	CodeBusy              = "busy"
	CodeInternal          = "internal_error"
)

// retryAfterSeconds is sent with 503 responses for lock contention.
const retryAfterSeconds = 1

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	status, code := mapErrorToHTTPStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

// respondBadRequest sends a 400 for a request that could not be decoded.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeValidation})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated

	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, CodeForbidden

	// Losing the accept race stays a 400 for existing clients; the code tells it apart.
	case errors.Is(err, service.ErrAlreadyTaken):
		return http.StatusBadRequest, CodeAlreadyTaken

	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusBadRequest, CodeInvalidTransition

	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, CodeValidation

	case errors.Is(err, repository.ErrBusy):
		return http.StatusServiceUnavailable, CodeBusy

	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// caller returns the identity resolved by the auth middleware.
func caller(c *gin.Context) (identity.Identity, bool) {
	id, ok := identity.FromContext(c.Request.Context())
	if !ok {
		respondError(c, identity.ErrUnauthenticated)
		return nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, name+" must be an integer")
		return 0, false
	}
	return v, true
}

// queryFloat reads a float query parameter. Missing required values are rejected.
func queryFloat(c *gin.Context, name string, required bool) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			respondBadRequest(c, name+" is required")
			return 0, false
		}
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondBadRequest(c, name+" must be a number")
		return 0, false
	}
	return v, true
}
