package models

import "time"

// MessageType distinguishes plain text from shared catalog entities.
type MessageType string

const (
	MessageTypeText       MessageType = "text"
	MessageTypeDeck       MessageType = "deck"
	MessageTypeCard       MessageType = "card"
	MessageTypeCollection MessageType = "collection"
)

// Valid reports whether the type is one of the known kinds.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeDeck, MessageTypeCard, MessageTypeCollection:
		return true
	}
	return false
}

// DeletedPlaceholder replaces the content of soft-deleted messages. Rows are
// never physically removed.
const DeletedPlaceholder = "This message was deleted"

// Message represents a chat message. RefID is set iff Type is not text and
// points at the shared deck/card/collection by id.
type Message struct {
	ID        int         `db:"id" json:"id"`
	ChatID    int         `db:"chat_id" json:"chat_id"`
	SenderID  int         `db:"sender_id" json:"sender_id"`
	Content   string      `db:"content" json:"content"`
	Type      MessageType `db:"type" json:"type"`
	RefID     *string     `db:"ref_id" json:"ref_id,omitempty"`
	Edited    bool        `db:"edited" json:"edited"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Deleted reports whether the message content has been replaced by the
// placeholder.
func (m Message) Deleted() bool {
	return m.Content == DeletedPlaceholder
}

// MessageDraft is an unsaved message, used for sends and bulk imports.
type MessageDraft struct {
	Content string      `json:"content"`
	Type    MessageType `json:"type"`
	RefID   *string     `json:"ref_id,omitempty"`
}

// ChatEvent is broadcast on the per-chat websocket stream.
type ChatEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
}

// ChatListEvent is broadcast on the per-user chat-list stream. It carries the
// whole chat row; clients refresh their list rather than merging, since a
// summary change can reorder it.
type ChatListEvent struct {
	Type string `json:"type"`
	Chat *Chat  `json:"chat,omitempty"`
}
