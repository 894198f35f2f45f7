package handlers

import (
	"net/http"

	"pizzeria/internal/middleware"
	"pizzeria/internal/services"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService services.SettingsService
}

func NewSettingsHandler(settingsService services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Pricing is public so the cart can preview taxes and delivery.
func (h *SettingsHandler) Pricing(c *gin.Context) {
	effective, err := h.settingsService.Effective(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", effective)
}

func (h *SettingsHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingsService.ListSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", settings)
}

func (h *SettingsHandler) UpdateSetting(c *gin.Context) {
	var req struct {
		Value *float64 `json:"value"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Value == nil {
		respondError(c, services.ValidationErrors{"value": "Value is required"})
		return
	}
	setting, err := h.settingsService.UpdateSetting(c.Request.Context(), c.Param("name"), *req.Value, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Setting updated", setting)
}
