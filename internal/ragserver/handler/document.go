package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
)

// UploadDocument handles POST /namespaces/:name/documents. The document is
// accepted for asynchronous processing.
func (h *Handler) UploadDocument(c *gin.Context) {
	var req model.DocumentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.service.UploadDocument(c.Request.Context(), c.Param("name"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// DocumentStatus handles GET /namespaces/:name/documents/:document_id/status.
func (h *Handler) DocumentStatus(c *gin.Context) {
	rec, err := h.service.DocumentStatus(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteDocument handles DELETE /namespaces/:name/documents/:document_id.
func (h *Handler) DeleteDocument(c *gin.Context) {
	resp, err := h.service.DeleteDocument(c.Request.Context(), c.Param("name"), c.Param("document_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
