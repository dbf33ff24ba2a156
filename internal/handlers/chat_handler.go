package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"deckchat-service/internal/catalog"
	"deckchat-service/internal/enricher"
	"deckchat-service/internal/models"
	"deckchat-service/internal/repositories"
	"deckchat-service/internal/services"
	"deckchat-service/internal/telemetry"
	"deckchat-service/internal/ws"
)

// UserDirectory is the slice of the catalog service the chat list needs to
// embed "other participant" display data.
type UserDirectory interface {
	BulkUsers(ctx context.Context, ids []int) ([]*catalog.User, error)
}

// ChatHandler manages the chat endpoints.
type ChatHandler struct {
	directory services.ChatDirectory
	store     services.MessageStore
	tracker   services.ReadStateTracker
	enrich    enricher.MessageEnricher
	users     UserDirectory
	hub       *ws.Hub
	audit     *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(directory services.ChatDirectory, store services.MessageStore, tracker services.ReadStateTracker, enrich enricher.MessageEnricher, users UserDirectory, hub *ws.Hub, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		directory: directory,
		store:     store,
		tracker:   tracker,
		enrich:    enrich,
		users:     users,
		hub:       hub,
		audit:     audit,
	}
}

// ListChats returns the authenticated user's chats, most recently active
// first, with the other participant's display data embedded.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.directory.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	friendIDs := make([]int, 0, len(chats))
	for _, chat := range chats {
		friendIDs = append(friendIDs, chat.FriendID)
	}

	users, err := h.users.BulkUsers(c.Request.Context(), friendIDs)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load user info"})
		return
	}

	userByID := map[int]*catalog.User{}
	for _, u := range users {
		userByID[u.ID] = u
	}

	type chatResponse struct {
		models.ChatSummary
		FriendUsername string `json:"friend_username,omitempty"`
		FriendAvatar   string `json:"friend_avatar,omitempty"`
	}

	responses := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		entry := chatResponse{ChatSummary: chat}
		if u, ok := userByID[chat.FriendID]; ok {
			entry.FriendUsername = u.Username
			entry.FriendAvatar = u.AvatarURL
		}
		responses = append(responses, entry)
	}

	c.JSON(http.StatusOK, gin.H{"chats": responses})
}

// StartChat resolves or creates the chat between the caller and another user.
// Idempotent: calling it twice, in either order, yields the same chat.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		OtherUserID int `json:"other_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.directory.GetOrCreate(c.Request.Context(), userID, req.OtherUserID)
	if err != nil {
		if errors.Is(err, services.ErrSelfChat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	h.emitAudit(c, "INFO", "chat resolved")
	c.JSON(http.StatusOK, chat)
}

// GetChatMessages returns the conversation log oldest first, with references
// resolved. A dangling reference renders with null payloads, never an error.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.store.Fetch(c.Request.Context(), chatID, userID)
	if err != nil {
		h.renderStoreError(c, err, "failed to load messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.enrich.Enrich(c.Request.Context(), msgs)})
}

// PostChatMessage appends a message and fans it out: the new message to the
// open conversation, the changed chat row to both participants' chat lists.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Content string             `json:"content" binding:"required"`
		Type    models.MessageType `json:"type"`
		RefID   *string            `json:"ref_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = models.MessageTypeText
	}

	userID := c.GetInt("userID")
	msg, chat, err := h.store.Send(c.Request.Context(), chatID, userID, models.MessageDraft{
		Content: req.Content,
		Type:    req.Type,
		RefID:   req.RefID,
	})
	if err != nil {
		h.renderStoreError(c, err, "failed to store message")
		return
	}

	h.hub.BroadcastMessage(chatID, msg)
	h.hub.BroadcastChatUpdate(chat)
	c.JSON(http.StatusCreated, msg)
}

// PostChatMessagesBatch inserts multiple messages in one call, used for bulk
// imports such as sharing many items at once. The chat summary reflects only
// the final item.
func (h *ChatHandler) PostChatMessagesBatch(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Messages []models.MessageDraft `json:"messages" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for i := range req.Messages {
		if req.Messages[i].Type == "" {
			req.Messages[i].Type = models.MessageTypeText
		}
	}

	userID := c.GetInt("userID")
	chat, err := h.store.SendBatch(c.Request.Context(), chatID, userID, req.Messages)
	if err != nil {
		h.renderStoreError(c, err, "failed to store messages")
		return
	}

	h.hub.BroadcastChatUpdate(chat)
	h.emitAudit(c, "INFO", "batch import stored")
	c.JSON(http.StatusCreated, gin.H{"inserted": len(req.Messages)})
}

// MarkRead sets the caller's read flag on the chat and pushes the changed row
// so other devices clear their badge too.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.tracker.MarkRead(c.Request.Context(), chatID, userID)
	if err != nil {
		h.renderStoreError(c, err, "could not mark chat read")
		return
	}

	h.hub.BroadcastChatUpdate(chat)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "read_at": time.Now().UTC()})
}

// Unread reports whether any chat is unread for the caller. Drives the single
// badge indicator.
func (h *ChatHandler) Unread(c *gin.Context) {
	userID := c.GetInt("userID")
	unread, err := h.tracker.HasUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check unread state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": unread})
}

func (h *ChatHandler) renderStoreError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
	case errors.Is(err, repositories.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
	case errors.Is(err, services.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, services.ErrInvalidMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message"})
	default:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *ChatHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
