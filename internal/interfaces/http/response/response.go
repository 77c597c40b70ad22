package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	domainerrors "smartcontract-gateway.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Domain sentinels are mapped to their HTTP
// status; anything else is reported as an internal error.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	switch {
	case errors.As(err, &appErr):
	case domainerrors.Known(err):
		appErr = domainerrors.FromContractError(err)
	default:
		appErr = domainerrors.InternalError(err)
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message, // Backward compatibility
	})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}
