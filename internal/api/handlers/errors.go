package handlers

import (
	"errors"

	"trolley-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError writes err with the status its kind maps to. Unknown errors
// are returned as 500 with their message.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrTokenMissing),
		errors.Is(err, services.ErrNoSubject):
		return 401
	case errors.Is(err, services.ErrTokenInvalid):
		return 403
	case errors.Is(err, services.ErrEmployeeNotFound),
		errors.Is(err, services.ErrAdminNotFound),
		errors.Is(err, services.ErrTrolleyNumberNotFound),
		errors.Is(err, services.ErrTrolleyNotFound),
		errors.Is(err, services.ErrTrolleysNotFound):
		return 404
	case errors.Is(err, services.ErrUsernameExists),
		errors.Is(err, services.ErrPositionRequired),
		errors.Is(err, services.ErrTrolleyNumberExists),
		errors.Is(err, services.ErrTrolleyNumberRequired),
		errors.Is(err, services.ErrTrolleyNumberNotAcceptable),
		errors.Is(err, services.ErrAlreadyOutside),
		errors.Is(err, services.ErrBalanceNumberExists),
		errors.Is(err, services.ErrInvalidDate):
		return 400
	default:
		return 500
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(400, gin.H{"error": "Invalid request: " + err.Error()})
}
