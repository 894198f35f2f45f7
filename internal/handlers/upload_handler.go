package handlers

import (
	"net/http"

	"pizzeria/internal/services"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (h *UploadHandler) UploadImage(c *gin.Context) {
	var req struct {
		Image string `json:"image"`
	}
	if !bindJSON(c, &req) {
		return
	}
	url, err := h.uploadService.SaveImage(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Image uploaded", gin.H{"url": url})
}
