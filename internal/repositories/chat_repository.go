package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"deckchat-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, participant_a, participant_b, last_message, last_message_type, read_a, read_b, created_at, updated_at`

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	GetOrCreateChat(ctx context.Context, userID int, otherID int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	ListChats(ctx context.Context, userID int) ([]models.Chat, error)
	UpdateSummary(ctx context.Context, chatID int, lastMessage string, lastType models.MessageType, recipientID int) error
	SetSummary(ctx context.Context, chatID int, lastMessage string, lastType models.MessageType) error
	MarkRead(ctx context.Context, chatID int, userID int) error
	HasUnread(ctx context.Context, userID int) (bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// GetOrCreateChat returns the chat for the unordered pair, creating it if
// absent. The pair is sorted before insert and the table carries a UNIQUE
// constraint, so two first-contact sends racing here converge on one row.
func (r *ChatRepo) GetOrCreateChat(ctx context.Context, userID int, otherID int) (models.Chat, error) {
	participants := []int{userID, otherID}
	sort.Ints(participants)
	a, b := participants[0], participants[1]

	var chat models.Chat
	insert := `INSERT INTO chats (participant_a, participant_b) VALUES ($1, $2)
        ON CONFLICT (participant_a, participant_b) DO NOTHING
        RETURNING ` + chatColumns
	err := r.db.GetContext(ctx, &chat, insert, a, b)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	// Conflict: the row already exists, possibly created a moment ago by the
	// other participant.
	err = r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE participant_a=$1 AND participant_b=$2`, a, b)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (participant_a=$2 OR participant_b=$2))`, chatID, userID)
	return exists, err
}

// ListChats returns the user's chats, most recently active first.
func (r *ChatRepo) ListChats(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, `SELECT `+chatColumns+` FROM chats
        WHERE participant_a=$1 OR participant_b=$1
        ORDER BY updated_at DESC`, userID)
	return chats, err
}

// UpdateSummary overwrites the denormalized summary after a send and flips the
// recipient's read flag. The sender's flag is untouched.
func (r *ChatRepo) UpdateSummary(ctx context.Context, chatID int, lastMessage string, lastType models.MessageType, recipientID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chats SET
        last_message=$1,
        last_message_type=$2,
        updated_at=NOW(),
        read_a = CASE WHEN participant_a=$3 THEN FALSE ELSE read_a END,
        read_b = CASE WHEN participant_b=$3 THEN FALSE ELSE read_b END
        WHERE id=$4`, lastMessage, string(lastType), recipientID, chatID)
	return err
}

// SetSummary overwrites the summary without touching read flags. Used when the
// summary is recomputed after an edit or soft delete.
func (r *ChatRepo) SetSummary(ctx context.Context, chatID int, lastMessage string, lastType models.MessageType) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chats SET last_message=$1, last_message_type=$2, updated_at=NOW() WHERE id=$3`, lastMessage, string(lastType), chatID)
	return err
}

// MarkRead sets the caller's read flag to true.
func (r *ChatRepo) MarkRead(ctx context.Context, chatID int, userID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET
        read_a = CASE WHEN participant_a=$1 THEN TRUE ELSE read_a END,
        read_b = CASE WHEN participant_b=$1 THEN TRUE ELSE read_b END
        WHERE id=$2 AND (participant_a=$1 OR participant_b=$1)`, userID, chatID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}

// HasUnread reports whether any chat has the user's read flag unset. Drives
// the single unread badge, not per-chat counts.
func (r *ChatRepo) HasUnread(ctx context.Context, userID int) (bool, error) {
	var unread bool
	err := r.db.GetContext(ctx, &unread, `SELECT EXISTS(SELECT 1 FROM chats
        WHERE (participant_a=$1 AND read_a = FALSE) OR (participant_b=$1 AND read_b = FALSE))`, userID)
	return unread, err
}
