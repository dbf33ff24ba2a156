package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"deckchat-service/internal/middleware"
	"deckchat-service/internal/observability"
)

// ChatListWebSocketHandler serves the per-user chat-list stream. One logical
// subscription covers chats where the caller sits in either participant
// column; row changes arrive as whole-row payloads.
type ChatListWebSocketHandler struct {
	hub       *Hub
	jwtSecret string
}

// NewChatListWebSocketHandler constructs a ChatListWebSocketHandler.
func NewChatListWebSocketHandler(hub *Hub, jwtSecret string) *ChatListWebSocketHandler {
	return &ChatListWebSocketHandler{hub: hub, jwtSecret: jwtSecret}
}

// Handle upgrades the connection and registers the client in their own
// chat-list room.
func (h *ChatListWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("deckchat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := middleware.VerifyBearer(h.jwtSecret, bearerFromRequest(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddUserClient(userID, conn, info)

	observability.IncWSActive("chat-list")
	publishLifecycle(ctx, "chat-list", userID, info, "ws_connect", "", 0)

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveUserClient(userID, conn)
			observability.DecWSActive("chat-list")
			publishLifecycle(ctx, "chat-list", userID, info, "ws_disconnect", closeReason, time.Since(info.ConnectedAt).Milliseconds())
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					publishLifecycle(ctx, "chat-list", userID, info, "ws_error", closeReason, time.Since(info.ConnectedAt).Milliseconds())
				}
				return
			}
		}
	}()
}
