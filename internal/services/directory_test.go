package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"deckchat-service/internal/mocks"
	"deckchat-service/internal/models"
)

func TestGetOrCreateDelegatesToRepository(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	svc := NewDirectoryService(chatRepo)

	want := models.Chat{ID: 7, ParticipantA: 1, ParticipantB: 2, ReadA: true, ReadB: true}
	chatRepo.On("GetOrCreateChat", mock.Anything, 2, 1).Return(want, nil).Once()

	got, err := svc.GetOrCreate(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	chatRepo.AssertExpectations(t)
}

func TestGetOrCreateRejectsSelfChat(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	svc := NewDirectoryService(chatRepo)

	_, err := svc.GetOrCreate(context.Background(), 3, 3)
	require.ErrorIs(t, err, ErrSelfChat)
	chatRepo.AssertNotCalled(t, "GetOrCreateChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestListForUserProjectsSummaries(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	svc := NewDirectoryService(chatRepo)

	chats := []models.Chat{
		{ID: 1, ParticipantA: 1, ParticipantB: 2, LastMessage: "yo", LastMessageType: models.MessageTypeText, ReadA: false, ReadB: true},
		{ID: 2, ParticipantA: 1, ParticipantB: 3, LastMessage: "deck", LastMessageType: models.MessageTypeDeck, ReadA: true, ReadB: false},
	}
	chatRepo.On("ListChats", mock.Anything, 1).Return(chats, nil).Once()

	list, err := svc.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].FriendID)
	assert.True(t, list[0].Unread)
	assert.Equal(t, 3, list[1].FriendID)
	assert.False(t, list[1].Unread)
	assert.Equal(t, models.MessageTypeDeck, list[1].LastMessageType)
}

func TestListForUserEmpty(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	svc := NewDirectoryService(chatRepo)

	chatRepo.On("ListChats", mock.Anything, 1).Return([]models.Chat{}, nil).Once()

	list, err := svc.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}
