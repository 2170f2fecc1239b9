package handlers

import (
	"net/http"

	"morningfocus/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and the last Mongo/Redis check.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"message":      "Hi, I'm Morning Focus",
		"dependencies": utils.GetHealthStatus(),
	})
}
