package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"deckchat-service/internal/models"
	"deckchat-service/internal/repositories"
	"deckchat-service/internal/services"
	"deckchat-service/internal/telemetry"
	"deckchat-service/internal/ws"
)

// MessageHandler manages edit and soft-delete endpoints.
type MessageHandler struct {
	store services.MessageStore
	hub   *ws.Hub
	audit *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(store services.MessageStore, hub *ws.Hub, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{store: store, hub: hub, audit: audit}
}

// EditMessage overwrites a message's content. Only the original sender may
// edit; anyone else receives 403 so the client can render a permission error
// distinctly from a not-found.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	msg, chat, err := h.store.Edit(c.Request.Context(), messageID, userID, req.Content)
	if err != nil {
		h.renderError(c, err, "could not edit message")
		return
	}

	h.hub.BroadcastEdit(msg.ChatID, msg)
	h.hub.BroadcastChatUpdate(chat)
	c.JSON(http.StatusOK, msg)
}

// DeleteMessages soft-deletes a batch of messages. The ownership check is
// all-or-nothing: a single foreign message rejects the whole request.
func (h *MessageHandler) DeleteMessages(c *gin.Context) {
	var req struct {
		IDs []int `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	deleted, chats, err := h.store.SoftDelete(c.Request.Context(), req.IDs, userID)
	if err != nil {
		h.renderError(c, err, "could not delete messages")
		return
	}

	for _, msg := range deleted {
		h.hub.BroadcastDeletion(msg.ChatID, msg.ID)
	}
	for _, chat := range chats {
		h.hub.BroadcastChatUpdate(chat)
	}

	h.emitAudit(c, "INFO", "messages deleted")
	c.JSON(http.StatusOK, gin.H{"updated": len(deleted), "placeholder": models.DeletedPlaceholder})
}

func (h *MessageHandler) renderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can do that"})
	default:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
