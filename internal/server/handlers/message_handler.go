package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/domain/models"
	"github.com/mamadbah2/wacloud/internal/repository"
	service "github.com/mamadbah2/wacloud/internal/service/whatsapp"
)

// MessageHandler exposes outbound sends, broadcasts and stored message lookups.
type MessageHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

func NewMessageHandler(svc service.MessagingService, logger *zap.Logger) *MessageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{svc: svc, logger: logger}
}

// Send delivers one message. API rejections are reported with 502 and the
// platform error in the body.
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Send(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to send message"})
		return
	}

	if !result.Success {
		c.JSON(http.StatusBadGateway, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Broadcast sends a template to many recipients. Partial results are
// returned alongside the error when the run aborts.
func (h *MessageHandler) Broadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid broadcast payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Broadcast(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("broadcast aborted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "broadcast aborted", "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get returns the stored record for a platform message id.
func (h *MessageHandler) Get(c *gin.Context) {
	record, err := h.svc.GetMessage(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		h.logger.Error("failed loading message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}

	c.JSON(http.StatusOK, record)
}
