package services

import (
	"context"
	"log"

	"deckchat-service/internal/models"
	"deckchat-service/internal/repositories"
)

// MessageStore appends, edits and soft-deletes messages while keeping each
// chat's denormalized summary consistent with its log.
type MessageStore interface {
	Send(ctx context.Context, chatID int, senderID int, draft models.MessageDraft) (models.Message, models.Chat, error)
	SendBatch(ctx context.Context, chatID int, senderID int, drafts []models.MessageDraft) (models.Chat, error)
	Fetch(ctx context.Context, chatID int, requesterID int) ([]models.Message, error)
	Edit(ctx context.Context, messageID int, requesterID int, newContent string) (models.Message, models.Chat, error)
	SoftDelete(ctx context.Context, messageIDs []int, requesterID int) ([]models.Message, []models.Chat, error)
}

// MessageService is the repository-backed MessageStore.
type MessageService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
}

// NewMessageService constructs a MessageService.
func NewMessageService(chats repositories.ChatRepository, messages repositories.MessageRepository) *MessageService {
	return &MessageService{chats: chats, messages: messages}
}

func validateDraft(draft models.MessageDraft) error {
	if draft.Type == "" || draft.Content == "" || !draft.Type.Valid() {
		return ErrInvalidMessage
	}
	hasRef := draft.RefID != nil && *draft.RefID != ""
	if draft.Type == models.MessageTypeText && hasRef {
		return ErrInvalidMessage
	}
	if draft.Type != models.MessageTypeText && !hasRef {
		return ErrInvalidMessage
	}
	return nil
}

// Send appends the message, then updates the owning chat's summary and flips
// the recipient's read flag. The two writes are not atomic: if the summary
// update fails after the append, the log is correct and the chat list is stale
// until the next send (at-least-once, eventually consistent).
func (s *MessageService) Send(ctx context.Context, chatID int, senderID int, draft models.MessageDraft) (models.Message, models.Chat, error) {
	if err := validateDraft(draft); err != nil {
		return models.Message{}, models.Chat{}, err
	}

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Message{}, models.Chat{}, err
	}
	if !chat.HasParticipant(senderID) {
		return models.Message{}, models.Chat{}, ErrNotParticipant
	}

	msg, err := s.messages.CreateMessage(ctx, chatID, senderID, draft)
	if err != nil {
		return models.Message{}, models.Chat{}, err
	}

	recipient := chat.OtherParticipant(senderID)
	if err := s.chats.UpdateSummary(ctx, chatID, msg.Content, msg.Type, recipient); err != nil {
		// The message is durable; only the denormalized summary is stale.
		log.Printf("summary update failed for chat %d: %v", chatID, err)
		return msg, chat, nil
	}

	chat, err = s.chats.GetChat(ctx, chatID)
	if err != nil {
		return msg, models.Chat{}, err
	}
	return msg, chat, nil
}

// SendBatch inserts multiple messages in one statement and updates the chat
// summary once, from the final draft. There is no per-message summary
// consistency for batches.
func (s *MessageService) SendBatch(ctx context.Context, chatID int, senderID int, drafts []models.MessageDraft) (models.Chat, error) {
	for _, d := range drafts {
		if err := validateDraft(d); err != nil {
			return models.Chat{}, err
		}
	}

	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(senderID) {
		return models.Chat{}, ErrNotParticipant
	}
	if len(drafts) == 0 {
		return chat, nil
	}

	if err := s.messages.CreateMessages(ctx, chatID, senderID, drafts); err != nil {
		return models.Chat{}, err
	}

	last := drafts[len(drafts)-1]
	recipient := chat.OtherParticipant(senderID)
	if err := s.chats.UpdateSummary(ctx, chatID, last.Content, last.Type, recipient); err != nil {
		log.Printf("summary update failed for chat %d: %v", chatID, err)
		return chat, nil
	}

	return s.chats.GetChat(ctx, chatID)
}

// Fetch returns the chat log in ascending creation order. Only participants
// may read it.
func (s *MessageService) Fetch(ctx context.Context, chatID int, requesterID int) ([]models.Message, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requesterID) {
		return nil, ErrNotParticipant
	}
	return s.messages.ListMessages(ctx, chatID)
}

// Edit overwrites the message content and marks it edited. Only the original
// sender may edit; anyone else gets ErrForbidden. The chat summary is
// recomputed afterwards so an edit of the latest message shows up in the list.
func (s *MessageService) Edit(ctx context.Context, messageID int, requesterID int, newContent string) (models.Message, models.Chat, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, models.Chat{}, err
	}
	if msg.SenderID != requesterID {
		return models.Message{}, models.Chat{}, ErrForbidden
	}

	updated, err := s.messages.UpdateContent(ctx, messageID, newContent, true)
	if err != nil {
		return models.Message{}, models.Chat{}, err
	}

	chat, err := s.refreshSummary(ctx, msg.ChatID)
	if err != nil {
		return updated, models.Chat{}, err
	}
	return updated, chat, nil
}

// SoftDelete replaces the content of every listed message with the deletion
// placeholder. The ownership check is all-or-nothing: one foreign message
// rejects the whole batch. Affected chats get their summary recomputed from
// the newest surviving message rather than unconditionally showing the
// placeholder.
func (s *MessageService) SoftDelete(ctx context.Context, messageIDs []int, requesterID int) ([]models.Message, []models.Chat, error) {
	msgs, err := s.messages.GetMessages(ctx, messageIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(msgs) != len(messageIDs) {
		return nil, nil, repositories.ErrMessageNotFound
	}
	for _, m := range msgs {
		if m.SenderID != requesterID {
			return nil, nil, ErrForbidden
		}
	}

	if err := s.messages.ReplaceContent(ctx, messageIDs, models.DeletedPlaceholder); err != nil {
		return nil, nil, err
	}

	chatIDs := map[int]struct{}{}
	for _, m := range msgs {
		chatIDs[m.ChatID] = struct{}{}
	}
	chats := make([]models.Chat, 0, len(chatIDs))
	for chatID := range chatIDs {
		chat, err := s.refreshSummary(ctx, chatID)
		if err != nil {
			log.Printf("summary refresh failed for chat %d: %v", chatID, err)
			continue
		}
		chats = append(chats, chat)
	}
	return msgs, chats, nil
}

// refreshSummary recomputes the chat summary from the newest surviving
// message, falling back to the placeholder when the whole log is deleted.
// When the recomputed summary equals the stored one (an edit or delete of a
// non-latest message), the row is left alone so updated_at does not move the
// chat to the top of the list.
func (s *MessageService) refreshSummary(ctx context.Context, chatID int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}

	content, mtype := models.DeletedPlaceholder, models.MessageTypeText
	last, err := s.messages.LatestSurviving(ctx, chatID)
	switch {
	case err == nil:
		content, mtype = last.Content, last.Type
	case err == repositories.ErrMessageNotFound:
	default:
		return models.Chat{}, err
	}

	if chat.LastMessage == content && chat.LastMessageType == mtype {
		return chat, nil
	}
	if err := s.chats.SetSummary(ctx, chatID, content, mtype); err != nil {
		return models.Chat{}, err
	}
	return s.chats.GetChat(ctx, chatID)
}
