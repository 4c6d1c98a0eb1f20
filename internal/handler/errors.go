package handler

import (
	"errors"
	"net/http"
	"runny/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// respondError maps service errors onto HTTP statuses. Anything that is not
// a known workflow error is treated as a store failure.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSelfRequest),
		errors.Is(err, service.ErrInvalidRecipient),
		errors.Is(err, service.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrAlreadyConnected),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrRunFull),
		errors.Is(err, service.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotReceiver),
		errors.Is(err, service.ErrNotHost),
		errors.Is(err, service.ErrNotConnected):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
