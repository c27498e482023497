package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ss0jung/rag-ai-chatbot/internal/model"
)

// CreateNamespace handles POST /namespaces.
func (h *Handler) CreateNamespace(c *gin.Context) {
	var req model.NamespaceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	info, err := h.service.CreateNamespace(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// ListNamespaces handles GET /namespaces.
func (h *Handler) ListNamespaces(c *gin.Context) {
	resp, err := h.service.ListNamespaces(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NamespaceExists handles GET /namespaces/:name/exists.
func (h *Handler) NamespaceExists(c *gin.Context) {
	name := c.Param("name")
	exists, err := h.service.NamespaceExists(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "exists": exists})
}

// DeleteNamespace handles DELETE /namespaces/:name.
func (h *Handler) DeleteNamespace(c *gin.Context) {
	if err := h.service.DeleteNamespace(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
