package middleware

import (
	"log"
	"net/http"

	apperrors "docgen-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Check if there are any errors
		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			// Check if it's an AppError
			if appErr, ok := err.Err.(*apperrors.AppError); ok {
				resp := apperrors.ErrorResponse{
					Error:   appErr.Code,
					Message: appErr.Message,
				}
				if appErr.Code == apperrors.ErrRateLimited.Code {
					resp.RetryAfter = 60
				}
				c.JSON(appErr.Status, resp)
				return
			}

			// Generic error
			log.Printf("Error: %v", err)
			c.JSON(http.StatusInternalServerError, apperrors.ErrorResponse{
				Error:   apperrors.ErrInternalServer.Code,
				Message: "Internal server error",
			})
		}
	}
}
