package handlers

import (
	"errors"
	"net/http"

	"morningfocus/services"
	"morningfocus/services/intelligence"
	"morningfocus/services/reflection"
	"morningfocus/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const invalidBodyMessage = "Invalid request body"

// bindJSON decodes the body into dst and answers 400 when it cannot.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		getLogger(c).Warn("invalid request body", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Message: invalidBodyMessage})
		return false
	}
	return true
}

// writeError maps service errors onto the API's status codes.
func writeError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONFieldError(c, verr.Message, verr.Field)
	case errors.Is(err, reflection.ErrReflectionNotFound):
		utils.JSONError(c, http.StatusNotFound, "Reflection not found")
	case errors.Is(err, intelligence.ErrUnsupportedAudio),
		errors.Is(err, intelligence.ErrAudioTooLarge),
		errors.Is(err, intelligence.ErrAudioTooLong):
		utils.JSONFieldError(c, err.Error(), "audio")
	default:
		getLogger(c).Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{Message: err.Error()})
	}
}
