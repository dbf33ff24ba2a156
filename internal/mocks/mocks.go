package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"deckchat-service/internal/catalog"
	"deckchat-service/internal/enricher"
	"deckchat-service/internal/models"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) GetOrCreateChat(ctx context.Context, userID int, otherID int) (models.Chat, error) {
	args := m.Called(ctx, userID, otherID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) UpdateSummary(ctx context.Context, chatID int, lastMessage string, lastType models.MessageType, recipientID int) error {
	args := m.Called(ctx, chatID, lastMessage, lastType, recipientID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) SetSummary(ctx context.Context, chatID int, lastMessage string, lastType models.MessageType) error {
	args := m.Called(ctx, chatID, lastMessage, lastType)
	return args.Error(0)
}

func (m *ChatRepositoryMock) MarkRead(ctx context.Context, chatID int, userID int) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) HasUnread(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, draft models.MessageDraft) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, draft)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CreateMessages(ctx context.Context, chatID int, senderID int, drafts []models.MessageDraft) error {
	args := m.Called(ctx, chatID, senderID, drafts)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessages(ctx context.Context, messageIDs []int) ([]models.Message, error) {
	args := m.Called(ctx, messageIDs)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateContent(ctx context.Context, messageID int, content string, edited bool) (models.Message, error) {
	args := m.Called(ctx, messageID, content, edited)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ReplaceContent(ctx context.Context, messageIDs []int, content string) error {
	args := m.Called(ctx, messageIDs, content)
	return args.Error(0)
}

func (m *MessageRepositoryMock) LatestSurviving(ctx context.Context, chatID int) (models.Message, error) {
	args := m.Called(ctx, chatID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type ChatDirectoryMock struct {
	mock.Mock
}

func (m *ChatDirectoryMock) GetOrCreate(ctx context.Context, userID int, otherID int) (models.Chat, error) {
	args := m.Called(ctx, userID, otherID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatDirectoryMock) ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

type MessageStoreMock struct {
	mock.Mock
}

func (m *MessageStoreMock) Send(ctx context.Context, chatID int, senderID int, draft models.MessageDraft) (models.Message, models.Chat, error) {
	args := m.Called(ctx, chatID, senderID, draft)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	var chat models.Chat
	if val := args.Get(1); val != nil {
		chat = val.(models.Chat)
	}
	return msg, chat, args.Error(2)
}

func (m *MessageStoreMock) SendBatch(ctx context.Context, chatID int, senderID int, drafts []models.MessageDraft) (models.Chat, error) {
	args := m.Called(ctx, chatID, senderID, drafts)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *MessageStoreMock) Fetch(ctx context.Context, chatID int, requesterID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, requesterID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageStoreMock) Edit(ctx context.Context, messageID int, requesterID int, newContent string) (models.Message, models.Chat, error) {
	args := m.Called(ctx, messageID, requesterID, newContent)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	var chat models.Chat
	if val := args.Get(1); val != nil {
		chat = val.(models.Chat)
	}
	return msg, chat, args.Error(2)
}

func (m *MessageStoreMock) SoftDelete(ctx context.Context, messageIDs []int, requesterID int) ([]models.Message, []models.Chat, error) {
	args := m.Called(ctx, messageIDs, requesterID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	var chats []models.Chat
	if val := args.Get(1); val != nil {
		chats = val.([]models.Chat)
	}
	return msgs, chats, args.Error(2)
}

type ReadStateTrackerMock struct {
	mock.Mock
}

func (m *ReadStateTrackerMock) MarkRead(ctx context.Context, chatID int, userID int) (models.Chat, error) {
	args := m.Called(ctx, chatID, userID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ReadStateTrackerMock) HasUnread(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type EnricherMock struct {
	mock.Mock
}

func (m *EnricherMock) Enrich(ctx context.Context, msgs []models.Message) []enricher.EnrichedMessage {
	args := m.Called(ctx, msgs)
	var enriched []enricher.EnrichedMessage
	if val := args.Get(0); val != nil {
		enriched = val.([]enricher.EnrichedMessage)
	}
	return enriched
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) BulkUsers(ctx context.Context, ids []int) ([]*catalog.User, error) {
	args := m.Called(ctx, ids)
	var users []*catalog.User
	if val := args.Get(0); val != nil {
		users = val.([]*catalog.User)
	}
	return users, args.Error(1)
}
