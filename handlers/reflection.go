package handlers

import (
	"net/http"
	"time"

	"morningfocus/models"
	"morningfocus/services/ics"
	"morningfocus/services/intelligence"
	"morningfocus/services/reflection"
	"morningfocus/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReflectionHandler struct {
	Service     reflection.ReflectionService
	Transcriber intelligence.Transcriber
	Now         func() time.Time
}

func NewReflectionHandler(svc reflection.ReflectionService, transcriber intelligence.Transcriber) *ReflectionHandler {
	return &ReflectionHandler{Service: svc, Transcriber: transcriber, Now: time.Now}
}

func (h *ReflectionHandler) ListReflectionsHandler(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ReflectionHandler) StreakHandler(c *gin.Context) {
	streak, err := h.Service.Streak(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, streak)
}

// CreateReflectionHandler upserts the reflection of a date.
func (h *ReflectionHandler) CreateReflectionHandler(c *gin.Context) {
	var req models.CreateReflectionRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.CreateReflectionResponse{Reflection: r})
}

func (h *ReflectionHandler) PlanTaskHandler(c *gin.Context) {
	var req models.PlanTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.Service.Plan(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReflectionHandler) PreviewScheduleHandler(c *gin.Context) {
	var req models.PreviewScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.Service.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReflectionHandler) ConfirmScheduleHandler(c *gin.Context) {
	var req models.ConfirmScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.Service.Confirm(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReflectionHandler) ToggleCompletedHandler(c *gin.Context) {
	var req models.ToggleCompletedRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Completed == nil {
		utils.JSONFieldError(c, "completed is required", "completed")
		return
	}
	r, err := h.Service.SetCompleted(c.Request.Context(), c.Param("id"), *req.Completed)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ExportBlocksHandler serves the confirmed blocks as an .ics attachment.
func (h *ReflectionHandler) ExportBlocksHandler(c *gin.Context) {
	r, blocks, err := h.Service.Blocks(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	body := ics.Export(r, blocks, h.Now())
	c.Header("Content-Disposition", `attachment; filename="`+ics.Filename(r)+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// TranscribeHandler turns a multipart "audio" upload into reflection text.
func (h *ReflectionHandler) TranscribeHandler(c *gin.Context) {
	if h.Transcriber == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Speech transcription is not configured")
		return
	}
	language := c.DefaultPostForm("language", models.LanguageKorean)

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		utils.JSONFieldError(c, "audio file is required", "audio")
		return
	}
	defer file.Close()

	text, err := h.Transcriber.Transcribe(c.Request.Context(), file, header.Filename, language)
	if err != nil {
		writeError(c, err)
		return
	}
	getLogger(c).Debug("transcribed reflection", zap.Int("chars", len(text)))
	c.JSON(http.StatusOK, models.TranscriptionResponse{Text: text})
}
