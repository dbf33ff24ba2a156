package services

import (
	"context"

	"deckchat-service/internal/models"
	"deckchat-service/internal/repositories"
)

// ReadStateTracker maintains the per-participant read flags on chats.
type ReadStateTracker interface {
	MarkRead(ctx context.Context, chatID int, userID int) (models.Chat, error)
	HasUnread(ctx context.Context, userID int) (bool, error)
}

// ReadStateService is the repository-backed ReadStateTracker.
type ReadStateService struct {
	chats repositories.ChatRepository
}

// NewReadStateService constructs a ReadStateService.
func NewReadStateService(chats repositories.ChatRepository) *ReadStateService {
	return &ReadStateService{chats: chats}
}

// MarkRead sets the viewer's own flag to true and returns the updated chat.
// A user outside the pair gets ErrNotParticipant.
func (s *ReadStateService) MarkRead(ctx context.Context, chatID int, userID int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(userID) {
		return models.Chat{}, ErrNotParticipant
	}
	if err := s.chats.MarkRead(ctx, chatID, userID); err != nil {
		return models.Chat{}, err
	}
	return s.chats.GetChat(ctx, chatID)
}

// HasUnread reports whether any of the user's chats is unread for them.
func (s *ReadStateService) HasUnread(ctx context.Context, userID int) (bool, error) {
	return s.chats.HasUnread(ctx, userID)
}
