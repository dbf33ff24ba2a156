package repositories

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"deckchat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const messageColumns = `id, chat_id, sender_id, content, type, ref_id, edited, created_at`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, draft models.MessageDraft) (models.Message, error)
	CreateMessages(ctx context.Context, chatID int, senderID int, drafts []models.MessageDraft) error
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	GetMessages(ctx context.Context, messageIDs []int) ([]models.Message, error)
	UpdateContent(ctx context.Context, messageID int, content string, edited bool) (models.Message, error)
	ReplaceContent(ctx context.Context, messageIDs []int, content string) error
	LatestSurviving(ctx context.Context, chatID int) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message to the chat log.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, draft models.MessageDraft) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, content, type, ref_id)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		chatID, senderID, draft.Content, string(draft.Type), draft.RefID).StructScan(&msg)
	return msg, err
}

// CreateMessages inserts multiple messages in one statement. Used for bulk
// imports; callers own summary consistency.
func (r *MessageRepo) CreateMessages(ctx context.Context, chatID int, senderID int, drafts []models.MessageDraft) error {
	if len(drafts) == 0 {
		return nil
	}
	builder := psql.Insert("messages").Columns("chat_id", "sender_id", "content", "type", "ref_id")
	for _, d := range drafts {
		builder = builder.Values(chatID, senderID, d.Content, string(d.Type), d.RefID)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// ListMessages returns the chat log oldest first, matching reading order.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE chat_id=$1 ORDER BY created_at ASC, id ASC`, chatID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// GetMessages retrieves a batch of messages by id.
func (r *MessageRepo) GetMessages(ctx context.Context, messageIDs []int) ([]models.Message, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	query, args, err := psql.Select("id", "chat_id", "sender_id", "content", "type", "ref_id", "edited", "created_at").
		From("messages").
		Where(sq.Eq{"id": messageIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	err = r.db.SelectContext(ctx, &msgs, query, args...)
	return msgs, err
}

// UpdateContent overwrites the message text and records the edit.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID int, content string, edited bool) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET content=$1, edited=$2 WHERE id=$3 RETURNING `+messageColumns,
		content, edited, messageID).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ReplaceContent overwrites the content of every listed message in place.
// Type and ref_id are untouched so enrichment can still classify the row.
func (r *MessageRepo) ReplaceContent(ctx context.Context, messageIDs []int, content string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	query, args, err := psql.Update("messages").
		Set("content", content).
		Where(sq.Eq{"id": messageIDs}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// LatestSurviving returns the newest message in the chat whose content is not
// the deletion placeholder. Returns ErrMessageNotFound when every message in
// the chat has been deleted.
func (r *MessageRepo) LatestSurviving(ctx context.Context, chatID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages
        WHERE chat_id=$1 AND content <> $2
        ORDER BY created_at DESC, id DESC LIMIT 1`, chatID, models.DeletedPlaceholder)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
