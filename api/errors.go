package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/logging"
)

const unexpectedMessage = "An unexpected error occurred. Please try again later."

type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAlreadyHeld, domain.KindAlreadyBooked, domain.KindIdempotencyKeyReused, domain.KindDuplicate:
		return http.StatusConflict
	case domain.KindHoldExpired, domain.KindInvalidTransition, domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindLockTimeout:
		return http.StatusServiceUnavailable
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	message := unexpectedMessage
	var de *domain.Error
	if kind != domain.KindUnexpected && errors.As(err, &de) {
		message = de.Message
	} else {
		logging.FromContext(c.Request.Context(), nil).Error("unexpected error", "error", err)
	}

	c.JSON(status, errorResponse{Error: string(kind), Message: message, Status: status, Timestamp: time.Now().UTC()})
}

func abortWithStatus(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Message: message, Status: status, Timestamp: time.Now().UTC()})
}
