package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"morningfocus/models"
	"morningfocus/services/calendar"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

var callbackPage = template.Must(template.New("lark_callback").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Morning Focus</title></head>
<body style="background:#0b1120;color:#fff;font-family:sans-serif;display:flex;align-items:center;justify-content:center;height:100vh;">
<div style="text-align:center">
{{if .OK}}<h2 style="color:#f59e0b;">Lark Calendar 연동 완료</h2>
<p style="color:#94a3b8;">이 창을 닫고 Morning Focus로 돌아가세요.</p>
<script>setTimeout(function(){window.close()},2000)</script>
{{else}}<h2>Lark 연동 실패</h2>
<p>{{.Message}}</p>{{end}}
</div>
</body></html>
`))

type callbackView struct {
	OK      bool
	Message string
}

type CalendarHandler struct {
	Service *calendar.CalendarService
}

func NewCalendarHandler(svc *calendar.CalendarService) *CalendarHandler {
	return &CalendarHandler{Service: svc}
}

func (h *CalendarHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Status(c.Request.Context()))
}

// LarkAuthURLHandler starts the Lark OAuth flow.
func (h *CalendarHandler) LarkAuthURLHandler(c *gin.Context) {
	url, err := h.Service.LarkAuthURL(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// LarkCallbackHandler finishes the Lark OAuth flow and renders a page for the popup window.
func (h *CalendarHandler) LarkCallbackHandler(c *gin.Context) {
	err := h.Service.CompleteLarkAuth(c.Request.Context(), c.Query("code"), c.Query("state"))
	switch {
	case err == nil:
		renderCallback(c, http.StatusOK, callbackView{OK: true})
	case errors.Is(err, calendar.ErrMissingCode):
		renderCallback(c, http.StatusBadRequest, callbackView{Message: "인증 코드가 없어요. 다시 시도해 주세요."})
	case errors.Is(err, calendar.ErrInvalidState):
		renderCallback(c, http.StatusBadRequest, callbackView{Message: "유효하지 않은 인증 요청이에요. 다시 시도해 주세요."})
	default:
		getLogger(c).Error("lark callback failed", zap.Error(err))
		renderCallback(c, http.StatusInternalServerError, callbackView{Message: err.Error()})
	}
}

func renderCallback(c *gin.Context, status int, view callbackView) {
	c.Render(status, render.HTML{Template: callbackPage, Name: "lark_callback", Data: view})
}

func (h *CalendarHandler) GoogleDisconnectHandler(c *gin.Context) {
	h.setGoogle(c, false)
}

func (h *CalendarHandler) GoogleEnableHandler(c *gin.Context) {
	h.setGoogle(c, true)
}

func (h *CalendarHandler) setGoogle(c *gin.Context, enabled bool) {
	if err := h.Service.SetGoogleEnabled(c.Request.Context(), enabled); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *CalendarHandler) LarkDisconnectHandler(c *gin.Context) {
	if err := h.Service.DisconnectLark(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
