package client

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"deckchat-service/internal/enricher"
	"deckchat-service/internal/models"
)

// State is the controller's current view.
type State int

const (
	StateChatList State = iota
	StateSearch
	StateConversation
)

var (
	// ErrBadTransition rejects an operation that does not apply to the
	// current view.
	ErrBadTransition = errors.New("client: invalid state transition")

	// ErrNoConversation rejects a conversation operation with no open
	// conversation.
	ErrNoConversation = errors.New("client: no open conversation")
)

// Conversation is the open-conversation view state. Either Chat is set, or
// PendingUser holds a search result no chat row exists for yet: the chat is
// only created on the first send, so idle browsing creates nothing.
type Conversation struct {
	Chat        *models.Chat
	PendingUser int
	Messages    []enricher.EnrichedMessage
	seen        map[int]bool
}

// Controller drives the three chat views against the service: the chat list,
// user search, and an open conversation. Subscription callbacks arrive on
// bridge goroutines; all state is guarded by one mutex and reconciled either
// by id-based merge (new messages) or by re-fetching (chat-list changes).
type Controller struct {
	api    API
	bridge Bridge

	mu           sync.Mutex
	state        State
	chats        []ChatEntry
	conversation *Conversation
	draft        string

	baseCtx    context.Context
	viewCtx    context.Context
	viewCancel context.CancelFunc
	listSub    io.Closer
	msgSub     io.Closer
}

// NewController constructs a Controller.
func NewController(api API, bridge Bridge) *Controller {
	return &Controller{api: api, bridge: bridge, state: StateChatList}
}

// Start loads the chat list and opens the list subscription. The controller
// stays in StateChatList.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseCtx = ctx
	return c.enterChatListLocked()
}

// State returns the current view.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Chats returns the cached chat list.
func (c *Controller) Chats() []ChatEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatEntry, len(c.chats))
	copy(out, c.chats)
	return out
}

// Conversation returns a snapshot of the open conversation view state, or
// nil. Subscription callbacks keep mutating the live state, so the internal
// struct must not escape.
func (c *Controller) Conversation() *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conversation == nil {
		return nil
	}
	out := Conversation{PendingUser: c.conversation.PendingUser}
	if c.conversation.Chat != nil {
		chat := *c.conversation.Chat
		out.Chat = &chat
	}
	out.Messages = make([]enricher.EnrichedMessage, len(c.conversation.Messages))
	copy(out.Messages, c.conversation.Messages)
	return &out
}

// OpenSearch moves from the chat list to user search, tearing down the list
// subscription.
func (c *Controller) OpenSearch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateChatList {
		return ErrBadTransition
	}
	c.teardownViewLocked()
	c.state = StateSearch
	return nil
}

// SelectUser opens a conversation with a search result. When a chat with that
// user already exists it is opened directly; otherwise the conversation holds
// only a pending user and no chat row is created until the first send.
func (c *Controller) SelectUser(userID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSearch {
		return ErrBadTransition
	}

	ctx := c.newViewCtxLocked()
	chats, err := c.api.ListChats(ctx)
	if err != nil {
		return err
	}
	c.chats = chats
	for _, chat := range chats {
		if chat.FriendID == userID {
			return c.openConversationLocked(ctx, chat.ChatID)
		}
	}

	c.conversation = &Conversation{PendingUser: userID, seen: map[int]bool{}}
	c.state = StateConversation
	return nil
}

// SelectChat opens an existing conversation from the chat list and marks it
// read for the viewer.
func (c *Controller) SelectChat(chatID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateChatList {
		return ErrBadTransition
	}
	c.teardownViewLocked()
	return c.openConversationLocked(c.newViewCtxLocked(), chatID)
}

// SetDraft stores the text to send next. A failed send leaves it intact for
// retry.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the pending draft text.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Send sends the pending draft as a text message. On the first send to a
// pending user it resolves the chat through get-or-create, then appends. The
// draft is cleared only on success.
func (c *Controller) Send() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == "" {
		return nil
	}
	msg, err := c.sendLocked(models.MessageDraft{Content: c.draft, Type: models.MessageTypeText})
	if err != nil {
		return err
	}
	c.draft = ""
	c.mergeMessageLocked(msg)
	return nil
}

// ShareReference sends a deck/card/collection reference message.
func (c *Controller) ShareReference(mtype models.MessageType, refID, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, err := c.sendLocked(models.MessageDraft{Content: caption, Type: mtype, RefID: &refID})
	if err != nil {
		return err
	}
	c.mergeMessageLocked(msg)
	return nil
}

// Back returns to the chat list from search or a conversation, tearing down
// the conversation subscription.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateChatList {
		return ErrBadTransition
	}
	c.teardownViewLocked()
	c.conversation = nil
	return c.enterChatListLocked()
}

// Close tears down every subscription. The controller is not reusable.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownViewLocked()
	c.conversation = nil
	return nil
}

func (c *Controller) enterChatListLocked() error {
	ctx := c.newViewCtxLocked()
	c.state = StateChatList
	if err := c.refreshChatsLocked(ctx); err != nil {
		return err
	}
	sub, err := c.bridge.SubscribeChatList(ctx, c.onChatListEvent)
	if err != nil {
		return err
	}
	c.listSub = sub
	return nil
}

func (c *Controller) openConversationLocked(ctx context.Context, chatID int) error {
	msgs, err := c.api.Messages(ctx, chatID)
	if err != nil {
		return err
	}

	conv := &Conversation{Messages: msgs, seen: map[int]bool{}}
	for _, m := range msgs {
		conv.seen[m.ID] = true
	}
	for i := range c.chats {
		if c.chats[i].ChatID == chatID {
			chat := chatFromEntry(c.chats[i])
			conv.Chat = &chat
			break
		}
	}
	if conv.Chat == nil {
		conv.Chat = &models.Chat{ID: chatID}
	}

	if err := c.api.MarkRead(ctx, chatID); err != nil {
		log.Printf("mark read failed for chat %d: %v", chatID, err)
	}

	sub, err := c.bridge.SubscribeChat(ctx, chatID, c.onChatEvent)
	if err != nil {
		return err
	}

	c.msgSub = sub
	c.conversation = conv
	c.state = StateConversation
	return nil
}

func (c *Controller) sendLocked(draft models.MessageDraft) (models.Message, error) {
	if c.state != StateConversation || c.conversation == nil {
		return models.Message{}, ErrNoConversation
	}
	ctx := c.viewCtxLocked()

	if c.conversation.Chat == nil && c.conversation.PendingUser != 0 {
		chat, err := c.api.StartChat(ctx, c.conversation.PendingUser)
		if err != nil {
			return models.Message{}, err
		}
		c.conversation.Chat = &chat
		c.conversation.PendingUser = 0
		sub, err := c.bridge.SubscribeChat(ctx, chat.ID, c.onChatEvent)
		if err != nil {
			log.Printf("chat subscription failed for chat %d: %v", chat.ID, err)
		} else {
			c.msgSub = sub
		}
	}

	return c.api.SendMessage(ctx, c.conversation.Chat.ID, draft)
}

// mergeMessageLocked appends a message unless its id is already present.
// Duplicate delivery (send response racing the subscription event) must not
// duplicate the rendered message.
func (c *Controller) mergeMessageLocked(msg models.Message) {
	conv := c.conversation
	if conv == nil || conv.Chat == nil || msg.ChatID != conv.Chat.ID {
		return
	}
	if conv.seen[msg.ID] {
		return
	}
	conv.seen[msg.ID] = true
	conv.Messages = append(conv.Messages, enricher.EnrichedMessage{Message: msg})
}

func (c *Controller) onChatEvent(event models.ChatEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv := c.conversation
	if conv == nil {
		return
	}
	switch event.Type {
	case "message":
		if event.Message != nil {
			c.mergeMessageLocked(*event.Message)
		}
	case "message_edited":
		if event.Message != nil {
			for i := range conv.Messages {
				if conv.Messages[i].ID == event.Message.ID {
					conv.Messages[i].Message = *event.Message
					break
				}
			}
		}
	case "message_deleted":
		for i := range conv.Messages {
			if conv.Messages[i].ID == event.MessageID {
				conv.Messages[i].Content = models.DeletedPlaceholder
				break
			}
		}
	}
}

// onChatListEvent refreshes the whole list: a summary change can reorder it,
// so incremental merge is not attempted.
func (c *Controller) onChatListEvent(models.ChatListEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateChatList {
		return
	}
	if err := c.refreshChatsLocked(c.viewCtxLocked()); err != nil {
		log.Printf("chat list refresh failed: %v", err)
	}
}

func (c *Controller) refreshChatsLocked(ctx context.Context) error {
	chats, err := c.api.ListChats(ctx)
	if err != nil {
		return err
	}
	c.chats = chats
	return nil
}

// newViewCtxLocked cancels the previous view's context, abandoning its
// subscriptions and any in-flight fetches, and derives a fresh one.
func (c *Controller) newViewCtxLocked() context.Context {
	c.teardownViewLocked()
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.viewCancel = cancel
	c.viewCtx = ctx
	return ctx
}

func (c *Controller) viewCtxLocked() context.Context {
	if c.viewCtx != nil {
		return c.viewCtx
	}
	return context.Background()
}

func (c *Controller) teardownViewLocked() {
	if c.listSub != nil {
		c.listSub.Close()
		c.listSub = nil
	}
	if c.msgSub != nil {
		c.msgSub.Close()
		c.msgSub = nil
	}
	if c.viewCancel != nil {
		c.viewCancel()
		c.viewCancel = nil
	}
}

func chatFromEntry(entry ChatEntry) models.Chat {
	return models.Chat{
		ID:              entry.ChatID,
		LastMessage:     entry.LastMessage,
		LastMessageType: entry.LastMessageType,
		UpdatedAt:       entry.UpdatedAt,
	}
}
