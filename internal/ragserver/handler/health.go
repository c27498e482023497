package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/version"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
)

// Health handles GET /health. The status is ok even when the vector backend
// is unreachable; backend_connected carries the probe result.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:           "ok",
		Version:          version.Get().GitVersion,
		BackendConnected: h.service.Healthy(c.Request.Context()),
	})
}
