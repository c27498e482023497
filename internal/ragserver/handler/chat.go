package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
)

// Chat handles POST /chat.
func (h *Handler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.service.Chat(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
