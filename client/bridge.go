package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"deckchat-service/internal/models"
)

// Bridge delivers server-pushed change events into local view state. Both
// streams are push-based; the client never polls.
type Bridge interface {
	// SubscribeChat streams message-inserted (and edit/delete) events for one
	// open conversation.
	SubscribeChat(ctx context.Context, chatID int, handler func(models.ChatEvent)) (io.Closer, error)
	// SubscribeChatList streams chat-row-changed events for every chat the
	// authenticated user participates in.
	SubscribeChatList(ctx context.Context, handler func(models.ChatListEvent)) (io.Closer, error)
}

// WSBridge implements Bridge over the service's websocket endpoints.
type WSBridge struct {
	baseURL string // ws:// or wss://
	token   string
	dialer  *websocket.Dialer
}

// NewWSBridge constructs a WSBridge.
func NewWSBridge(baseURL, token string) *WSBridge {
	return &WSBridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer:  websocket.DefaultDialer,
	}
}

// SubscribeChat opens the per-chat stream. The returned Closer must be called
// when the conversation view unmounts; an unmanaged subscription keeps
// processing updates for a view the user can no longer see.
func (b *WSBridge) SubscribeChat(ctx context.Context, chatID int, handler func(models.ChatEvent)) (io.Closer, error) {
	conn, err := b.dial(ctx, fmt.Sprintf("/ws/chats/%d", chatID))
	if err != nil {
		return nil, err
	}
	sub := newSubscription(conn)
	go readLoop(conn, sub, func(payload []byte) {
		var event models.ChatEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("bridge: bad chat event: %v", err)
			return
		}
		handler(event)
	})
	go closeOnDone(ctx, sub)
	return sub, nil
}

// SubscribeChatList opens the per-user chat-list stream.
func (b *WSBridge) SubscribeChatList(ctx context.Context, handler func(models.ChatListEvent)) (io.Closer, error) {
	conn, err := b.dial(ctx, "/ws/chat-list")
	if err != nil {
		return nil, err
	}
	sub := newSubscription(conn)
	go readLoop(conn, sub, func(payload []byte) {
		var event models.ChatListEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("bridge: bad chat-list event: %v", err)
			return
		}
		handler(event)
	})
	go closeOnDone(ctx, sub)
	return sub, nil
}

func (b *WSBridge) dial(ctx context.Context, path string) (*websocket.Conn, error) {
	endpoint := b.baseURL + path + "?token=" + url.QueryEscape(b.token)
	conn, _, err := b.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge dial: %w", err)
	}
	return conn, nil
}

type subscription struct {
	conn *websocket.Conn
	once sync.Once
	done chan struct{}
}

func newSubscription(conn *websocket.Conn) *subscription {
	return &subscription{conn: conn, done: make(chan struct{})}
}

// Close tears the subscription down. Safe to call more than once.
func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
	return nil
}

func readLoop(conn *websocket.Conn, sub *subscription, deliver func([]byte)) {
	defer sub.Close()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case <-sub.done:
			return
		default:
		}
		deliver(payload)
	}
}

func closeOnDone(ctx context.Context, sub *subscription) {
	select {
	case <-ctx.Done():
		sub.Close()
	case <-sub.done:
	}
}
