// Package handler provides the HTTP handlers of the AI service.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/ss0jung/rag-ai-chatbot/internal/ragserver/biz"
	"github.com/ss0jung/rag-ai-chatbot/pkg/errors"
)

// Handler exposes the business service over HTTP.
type Handler struct {
	service *biz.Service
}

// New creates a Handler.
func New(service *biz.Service) *Handler {
	return &Handler{service: service}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeError logs err and writes the mapped status and structured body.
func writeError(c *gin.Context, err error) {
	e := errors.FromError(err)
	if e.HTTP >= 500 {
		logger.Errorw("request failed", "path", c.FullPath(), "code", e.Code, "error", err)
	} else {
		logger.Warnw("request rejected", "path", c.FullPath(), "code", e.Code, "error", err)
	}
	c.JSON(e.HTTP, ErrorResponse{Code: e.Code, Message: e.Message})
}

// bindError maps gin binding failures to the invalid-argument errno.
func bindError(c *gin.Context, err error) {
	writeError(c, errors.ErrInvalidArgument.WithMessage("%v", err))
}
