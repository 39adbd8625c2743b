package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/pkg/whatsapp/preview"
)

type PreviewHandler struct {
	logger *zap.Logger
}

func NewPreviewHandler(logger *zap.Logger) *PreviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewHandler{logger: logger}
}

// Render returns the HTML preview of a template description.
func (h *PreviewHandler) Render(c *gin.Context) {
	var tpl preview.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		h.logger.Warn("invalid preview payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var buf bytes.Buffer
	if err := preview.Render(&buf, tpl); err != nil {
		h.logger.Error("failed rendering preview", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render preview"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
