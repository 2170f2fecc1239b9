package handlers

import (
	"net/http"

	"morningfocus/models"
	"morningfocus/services/settings"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	Service settings.SettingsService
}

func NewSettingsHandler(svc settings.SettingsService) *SettingsHandler {
	return &SettingsHandler{Service: svc}
}

// GetSettingsHandler returns the settings with the Lark secret masked.
func (h *SettingsHandler) GetSettingsHandler(c *gin.Context) {
	st, err := h.Service.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Masked())
}

// UpdateSettingsHandler applies a partial update.
func (h *SettingsHandler) UpdateSettingsHandler(c *gin.Context) {
	var patch models.SettingsPatch
	if !bindJSON(c, &patch) {
		return
	}
	st, err := h.Service.Update(c.Request.Context(), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Masked())
}

// SaveLarkCredentialsHandler stores the Lark app id and secret.
func (h *SettingsHandler) SaveLarkCredentialsHandler(c *gin.Context) {
	var req models.LarkCredentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Service.SetLarkCredentials(c.Request.Context(), req.LarkAppID, req.LarkAppSecret); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
