package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string) {
	logger := GetLogger()
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Int("status", status), zap.String("path", c.Request.URL.Path))
	} else {
		logger.Warn(message, zap.Int("status", status), zap.String("path", c.Request.URL.Path))
	}
	c.JSON(status, ErrorResponse{Message: message})
}

// JSONFieldError sends a validation error naming the offending field.
func JSONFieldError(c *gin.Context, message, field string) {
	GetLogger().Warn(message, zap.String("field", field), zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusBadRequest, ErrorResponse{Message: message, Field: field})
}
