package services

import (
	"context"

	"deckchat-service/internal/models"
	"deckchat-service/internal/repositories"
)

// ChatDirectory resolves or creates the canonical chat between two users.
type ChatDirectory interface {
	GetOrCreate(ctx context.Context, userID int, otherID int) (models.Chat, error)
	ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error)
}

// DirectoryService is the repository-backed ChatDirectory.
type DirectoryService struct {
	chats repositories.ChatRepository
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(chats repositories.ChatRepository) *DirectoryService {
	return &DirectoryService{chats: chats}
}

// GetOrCreate returns the chat for the unordered pair {userID, otherID},
// creating it with both read flags true when no messages exist yet. Idempotent
// in either argument order.
func (s *DirectoryService) GetOrCreate(ctx context.Context, userID int, otherID int) (models.Chat, error) {
	if userID == otherID {
		return models.Chat{}, ErrSelfChat
	}
	return s.chats.GetOrCreateChat(ctx, userID, otherID)
}

// ListForUser returns the user's chats as per-user summaries, most recently
// active first.
func (s *DirectoryService) ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	chats, err := s.chats.ListChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, chat.SummaryFor(userID))
	}
	return summaries, nil
}
