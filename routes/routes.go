package routes

import (
	"time"

	"morningfocus/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSettingsRoutes registers user settings endpoints.
func RegisterSettingsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/settings")
	{
		api.GET("", hb.GetSettingsHandler)
		api.PATCH("", hb.UpdateSettingsHandler)
	}
}

// RegisterReflectionRoutes registers the reflection, planning and scheduling endpoints.
func RegisterReflectionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reflections")
	{
		api.GET("", hb.ListReflectionsHandler)
		api.POST("", hb.CreateReflectionHandler)
		api.GET("/streak", hb.StreakHandler)
		api.POST("/transcribe", hb.TranscribeHandler)

		api.POST("/:id/plan", hb.PlanTaskHandler)
		api.POST("/:id/schedule/preview", hb.PreviewScheduleHandler)
		api.POST("/:id/schedule/confirm", hb.ConfirmScheduleHandler)
		api.PATCH("/:id/completed", hb.ToggleCompletedHandler)
		api.GET("/:id/blocks.ics", hb.ExportBlocksHandler)
	}
}

// RegisterCalendarRoutes registers calendar connection endpoints.
func RegisterCalendarRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/calendar")
	{
		api.GET("/status", hb.CalendarStatusHandler)

		api.GET("/lark/auth-url", hb.LarkAuthURLHandler)
		api.GET("/lark/callback", hb.LarkCallbackHandler)
		api.POST("/lark/disconnect", hb.LarkDisconnectHandler)
		api.POST("/lark/credentials", hb.SaveLarkCredentialsHandler)

		api.POST("/google/disconnect", hb.GoogleDisconnectHandler)
		api.POST("/google/enable", hb.GoogleEnableHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterSettingsRoutes(r, hb)
	RegisterReflectionRoutes(r, hb)
	RegisterCalendarRoutes(r, hb)
	RegisterHealthRoute(r)
}
