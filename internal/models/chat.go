package models

import "time"

// Chat represents the unique 1:1 conversation between two users. Participants
// are stored sorted (ParticipantA < ParticipantB) so the unordered pair maps
// onto a single row guarded by a UNIQUE constraint.
type Chat struct {
	ID              int         `db:"id" json:"id"`
	ParticipantA    int         `db:"participant_a" json:"participant_a"`
	ParticipantB    int         `db:"participant_b" json:"participant_b"`
	LastMessage     string      `db:"last_message" json:"last_message"`
	LastMessageType MessageType `db:"last_message_type" json:"last_message_type"`
	ReadA           bool        `db:"read_a" json:"read_a"`
	ReadB           bool        `db:"read_b" json:"read_b"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID int) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant returns the participant facing userID.
func (c Chat) OtherParticipant(userID int) int {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// ReadFor returns the read flag belonging to userID.
func (c Chat) ReadFor(userID int) bool {
	if c.ParticipantA == userID {
		return c.ReadA
	}
	return c.ReadB
}

// ChatSummary is the per-user view of a chat row for the chat list.
type ChatSummary struct {
	ChatID          int         `json:"chat_id"`
	FriendID        int         `json:"friend_id"`
	LastMessage     string      `json:"last_message"`
	LastMessageType MessageType `json:"last_message_type"`
	Unread          bool        `json:"unread"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SummaryFor projects the chat into the view seen by userID.
func (c Chat) SummaryFor(userID int) ChatSummary {
	return ChatSummary{
		ChatID:          c.ID,
		FriendID:        c.OtherParticipant(userID),
		LastMessage:     c.LastMessage,
		LastMessageType: c.LastMessageType,
		Unread:          !c.ReadFor(userID),
		UpdatedAt:       c.UpdatedAt,
	}
}
