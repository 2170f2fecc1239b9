package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all the endpoint handlers into one struct.
type HandlerBundle struct {
	// Settings endpoints
	GetSettingsHandler         gin.HandlerFunc
	UpdateSettingsHandler      gin.HandlerFunc
	SaveLarkCredentialsHandler gin.HandlerFunc

	// Reflection endpoints
	ListReflectionsHandler  gin.HandlerFunc
	StreakHandler           gin.HandlerFunc
	CreateReflectionHandler gin.HandlerFunc
	TranscribeHandler       gin.HandlerFunc
	PlanTaskHandler         gin.HandlerFunc
	PreviewScheduleHandler  gin.HandlerFunc
	ConfirmScheduleHandler  gin.HandlerFunc
	ToggleCompletedHandler  gin.HandlerFunc
	ExportBlocksHandler     gin.HandlerFunc

	// Calendar endpoints
	CalendarStatusHandler   gin.HandlerFunc
	LarkAuthURLHandler      gin.HandlerFunc
	LarkCallbackHandler     gin.HandlerFunc
	LarkDisconnectHandler   gin.HandlerFunc
	GoogleDisconnectHandler gin.HandlerFunc
	GoogleEnableHandler     gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into a bundle.
func NewHandlerBundle(settings *SettingsHandler, reflections *ReflectionHandler, calendars *CalendarHandler) *HandlerBundle {
	return &HandlerBundle{
		GetSettingsHandler:         settings.GetSettingsHandler,
		UpdateSettingsHandler:      settings.UpdateSettingsHandler,
		SaveLarkCredentialsHandler: settings.SaveLarkCredentialsHandler,

		ListReflectionsHandler:  reflections.ListReflectionsHandler,
		StreakHandler:           reflections.StreakHandler,
		CreateReflectionHandler: reflections.CreateReflectionHandler,
		TranscribeHandler:       reflections.TranscribeHandler,
		PlanTaskHandler:         reflections.PlanTaskHandler,
		PreviewScheduleHandler:  reflections.PreviewScheduleHandler,
		ConfirmScheduleHandler:  reflections.ConfirmScheduleHandler,
		ToggleCompletedHandler:  reflections.ToggleCompletedHandler,
		ExportBlocksHandler:     reflections.ExportBlocksHandler,

		CalendarStatusHandler:   calendars.StatusHandler,
		LarkAuthURLHandler:      calendars.LarkAuthURLHandler,
		LarkCallbackHandler:     calendars.LarkCallbackHandler,
		LarkDisconnectHandler:   calendars.LarkDisconnectHandler,
		GoogleDisconnectHandler: calendars.GoogleDisconnectHandler,
		GoogleEnableHandler:     calendars.GoogleEnableHandler,
	}
}
