// Package router wires the HTTP routes of the AI service.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/handler"
)

// Register mounts every route on the engine.
func Register(engine *gin.Engine, h *handler.Handler) {
	engine.GET("/health", h.Health)

	engine.POST("/namespaces", h.CreateNamespace)
	engine.GET("/namespaces", h.ListNamespaces)

	ns := engine.Group("/namespaces/:name")
	{
		ns.GET("/exists", h.NamespaceExists)
		ns.DELETE("", h.DeleteNamespace)
		ns.POST("/documents", h.UploadDocument)
		ns.GET("/documents/:document_id/status", h.DocumentStatus)
		ns.DELETE("/documents/:document_id", h.DeleteDocument)
	}

	engine.POST("/chat", h.Chat)
}
