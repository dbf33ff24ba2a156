package client

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckchat-service/internal/enricher"
	"deckchat-service/internal/models"
)

type fakeAPI struct {
	chats    []ChatEntry
	messages map[int][]enricher.EnrichedMessage

	startChatCalls int
	startedWith    int
	startChatErr   error
	chat           models.Chat

	sentDrafts  []models.MessageDraft
	sendErr     error
	nextMsgID   int
	markedRead  []int
	markReadErr error
}

func (f *fakeAPI) ListChats(ctx context.Context) ([]ChatEntry, error) { return f.chats, nil }

func (f *fakeAPI) StartChat(ctx context.Context, otherUserID int) (models.Chat, error) {
	f.startChatCalls++
	f.startedWith = otherUserID
	if f.startChatErr != nil {
		return models.Chat{}, f.startChatErr
	}
	return f.chat, nil
}

func (f *fakeAPI) Messages(ctx context.Context, chatID int) ([]enricher.EnrichedMessage, error) {
	return f.messages[chatID], nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID int, draft models.MessageDraft) (models.Message, error) {
	if f.sendErr != nil {
		return models.Message{}, f.sendErr
	}
	f.sentDrafts = append(f.sentDrafts, draft)
	f.nextMsgID++
	return models.Message{ID: f.nextMsgID, ChatID: chatID, Content: draft.Content, Type: draft.Type, RefID: draft.RefID}, nil
}

func (f *fakeAPI) SendBatch(ctx context.Context, chatID int, drafts []models.MessageDraft) error {
	return nil
}

func (f *fakeAPI) MarkRead(ctx context.Context, chatID int) error {
	f.markedRead = append(f.markedRead, chatID)
	return f.markReadErr
}

func (f *fakeAPI) EditMessage(ctx context.Context, messageID int, content string) (models.Message, error) {
	return models.Message{ID: messageID, Content: content, Edited: true}, nil
}

func (f *fakeAPI) DeleteMessages(ctx context.Context, messageIDs []int) (int, error) {
	return len(messageIDs), nil
}

func (f *fakeAPI) HasUnread(ctx context.Context) (bool, error) { return false, nil }

type fakeSub struct{ closed bool }

func (s *fakeSub) Close() error {
	s.closed = true
	return nil
}

type fakeBridge struct {
	chatHandler func(models.ChatEvent)
	listHandler func(models.ChatListEvent)
	chatSubs    []*fakeSub
	listSubs    []*fakeSub
	subscribed  []int
}

func (b *fakeBridge) SubscribeChat(ctx context.Context, chatID int, handler func(models.ChatEvent)) (io.Closer, error) {
	b.chatHandler = handler
	b.subscribed = append(b.subscribed, chatID)
	sub := &fakeSub{}
	b.chatSubs = append(b.chatSubs, sub)
	return sub, nil
}

func (b *fakeBridge) SubscribeChatList(ctx context.Context, handler func(models.ChatListEvent)) (io.Closer, error) {
	b.listHandler = handler
	sub := &fakeSub{}
	b.listSubs = append(b.listSubs, sub)
	return sub, nil
}

func entry(chatID, friendID int, last string) ChatEntry {
	return ChatEntry{ChatSummary: models.ChatSummary{ChatID: chatID, FriendID: friendID, LastMessage: last}}
}

func TestStartLoadsChatList(t *testing.T) {
	api := &fakeAPI{chats: []ChatEntry{entry(5, 2, "yo")}}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)

	require.NoError(t, ctrl.Start(context.Background()))
	assert.Equal(t, StateChatList, ctrl.State())
	require.Len(t, ctrl.Chats(), 1)
	require.NotNil(t, bridge.listHandler)
}

func TestFirstSendCreatesChatLazily(t *testing.T) {
	api := &fakeAPI{chat: models.Chat{ID: 9, ParticipantA: 1, ParticipantB: 7}}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.OpenSearch())
	require.NoError(t, ctrl.SelectUser(7))

	// Browsing into the conversation creates nothing yet.
	assert.Equal(t, 0, api.startChatCalls)
	conv := ctrl.Conversation()
	require.NotNil(t, conv)
	assert.Nil(t, conv.Chat)
	assert.Equal(t, 7, conv.PendingUser)

	ctrl.SetDraft("hello")
	require.NoError(t, ctrl.Send())

	assert.Equal(t, 1, api.startChatCalls)
	assert.Equal(t, 7, api.startedWith)
	conv = ctrl.Conversation()
	require.NotNil(t, conv.Chat)
	assert.Equal(t, 9, conv.Chat.ID)
	assert.Equal(t, 0, conv.PendingUser)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hello", conv.Messages[0].Content)
	assert.Empty(t, ctrl.Draft())

	// A second send reuses the resolved chat.
	ctrl.SetDraft("again")
	require.NoError(t, ctrl.Send())
	assert.Equal(t, 1, api.startChatCalls)
}

func TestSelectUserWithExistingChatOpensIt(t *testing.T) {
	api := &fakeAPI{
		chats:    []ChatEntry{entry(5, 2, "yo")},
		messages: map[int][]enricher.EnrichedMessage{5: {{Message: models.Message{ID: 1, ChatID: 5, Content: "yo"}}}},
	}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.OpenSearch())
	require.NoError(t, ctrl.SelectUser(2))

	conv := ctrl.Conversation()
	require.NotNil(t, conv.Chat)
	assert.Equal(t, 5, conv.Chat.ID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, []int{5}, api.markedRead)
	assert.Equal(t, []int{5}, bridge.subscribed)
}

func TestSelectChatMarksRead(t *testing.T) {
	api := &fakeAPI{chats: []ChatEntry{entry(5, 2, "yo")}}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))

	require.NoError(t, ctrl.SelectChat(5))
	assert.Equal(t, StateConversation, ctrl.State())
	assert.Equal(t, []int{5}, api.markedRead)
}

func TestFailedSendKeepsDraft(t *testing.T) {
	api := &fakeAPI{chats: []ChatEntry{entry(5, 2, "yo")}, sendErr: ErrForbidden}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.SelectChat(5))

	ctrl.SetDraft("keep me")
	require.ErrorIs(t, ctrl.Send(), ErrForbidden)
	assert.Equal(t, "keep me", ctrl.Draft())
}

func TestDuplicateDeliveryRendersOnce(t *testing.T) {
	api := &fakeAPI{chats: []ChatEntry{entry(5, 2, "yo")}}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.SelectChat(5))

	ctrl.SetDraft("hi")
	require.NoError(t, ctrl.Send())
	require.Len(t, ctrl.Conversation().Messages, 1)

	// The subscription echoes the message the send already merged.
	sent := models.Message{ID: 1, ChatID: 5, Content: "hi", Type: models.MessageTypeText}
	bridge.chatHandler(models.ChatEvent{Type: "message", Message: &sent})
	assert.Len(t, ctrl.Conversation().Messages, 1)

	// A genuinely new message still lands.
	incoming := models.Message{ID: 2, ChatID: 5, SenderID: 2, Content: "hey", Type: models.MessageTypeText}
	bridge.chatHandler(models.ChatEvent{Type: "message", Message: &incoming})
	assert.Len(t, ctrl.Conversation().Messages, 2)
}

func TestChatEventEditAndDelete(t *testing.T) {
	api := &fakeAPI{
		chats:    []ChatEntry{entry(5, 2, "yo")},
		messages: map[int][]enricher.EnrichedMessage{5: {{Message: models.Message{ID: 1, ChatID: 5, Content: "original"}}}},
	}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.SelectChat(5))

	edited := models.Message{ID: 1, ChatID: 5, Content: "fixed", Edited: true}
	bridge.chatHandler(models.ChatEvent{Type: "message_edited", Message: &edited})
	assert.Equal(t, "fixed", ctrl.Conversation().Messages[0].Content)
	assert.True(t, ctrl.Conversation().Messages[0].Edited)

	bridge.chatHandler(models.ChatEvent{Type: "message_deleted", MessageID: 1})
	assert.Equal(t, models.DeletedPlaceholder, ctrl.Conversation().Messages[0].Content)
}

func TestConversationReturnsSnapshot(t *testing.T) {
	api := &fakeAPI{
		chats:    []ChatEntry{entry(5, 2, "yo")},
		messages: map[int][]enricher.EnrichedMessage{5: {{Message: models.Message{ID: 1, ChatID: 5, Content: "original"}}}},
	}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.SelectChat(5))

	before := ctrl.Conversation()
	require.Len(t, before.Messages, 1)

	edited := models.Message{ID: 1, ChatID: 5, Content: "fixed", Edited: true}
	bridge.chatHandler(models.ChatEvent{Type: "message_edited", Message: &edited})

	// An edit arriving after the snapshot was taken must not reach into it.
	assert.Equal(t, "original", before.Messages[0].Content)
	assert.Equal(t, "fixed", ctrl.Conversation().Messages[0].Content)
}

func TestBackTearsDownConversation(t *testing.T) {
	api := &fakeAPI{chats: []ChatEntry{entry(5, 2, "yo")}}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.SelectChat(5))
	require.Len(t, bridge.chatSubs, 1)

	require.NoError(t, ctrl.Back())
	assert.Equal(t, StateChatList, ctrl.State())
	assert.Nil(t, ctrl.Conversation())
	assert.True(t, bridge.chatSubs[0].closed)
	// Returning to the list reopens a fresh list subscription.
	require.Len(t, bridge.listSubs, 2)
	assert.True(t, bridge.listSubs[0].closed)
	assert.False(t, bridge.listSubs[1].closed)
}

func TestBadTransitions(t *testing.T) {
	api := &fakeAPI{}
	ctrl := NewController(api, &fakeBridge{})
	require.NoError(t, ctrl.Start(context.Background()))

	require.ErrorIs(t, ctrl.Back(), ErrBadTransition)
	require.ErrorIs(t, ctrl.SelectUser(2), ErrBadTransition)

	require.NoError(t, ctrl.OpenSearch())
	require.ErrorIs(t, ctrl.SelectChat(5), ErrBadTransition)
	require.ErrorIs(t, ctrl.OpenSearch(), ErrBadTransition)
}

func TestSendWithoutConversation(t *testing.T) {
	ctrl := NewController(&fakeAPI{}, &fakeBridge{})
	require.NoError(t, ctrl.Start(context.Background()))

	ctrl.SetDraft("orphan")
	require.ErrorIs(t, ctrl.Send(), ErrNoConversation)
}

func TestShareReference(t *testing.T) {
	api := &fakeAPI{chats: []ChatEntry{entry(5, 2, "yo")}}
	bridge := &fakeBridge{}
	ctrl := NewController(api, bridge)
	require.NoError(t, ctrl.Start(context.Background()))
	require.NoError(t, ctrl.SelectChat(5))

	require.NoError(t, ctrl.ShareReference(models.MessageTypeDeck, "d-1", "my burn list"))
	require.Len(t, api.sentDrafts, 1)
	assert.Equal(t, models.MessageTypeDeck, api.sentDrafts[0].Type)
	require.NotNil(t, api.sentDrafts[0].RefID)
	assert.Equal(t, "d-1", *api.sentDrafts[0].RefID)

	msgs := ctrl.Conversation().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "my burn list", msgs[0].Content)
}
