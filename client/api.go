package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"deckchat-service/internal/enricher"
	"deckchat-service/internal/models"
)

var (
	// ErrForbidden mirrors a 403 from the service: an ownership or
	// participant violation, distinct from not-found.
	ErrForbidden = errors.New("client: forbidden")

	// ErrNotFound mirrors a 404 from the service.
	ErrNotFound = errors.New("client: not found")
)

// ChatEntry is a chat-list row with the other participant's display data.
type ChatEntry struct {
	models.ChatSummary
	FriendUsername string `json:"friend_username,omitempty"`
	FriendAvatar   string `json:"friend_avatar,omitempty"`
}

// API is the typed surface of the chat service the controller and bridge
// share. HTTPAPI implements it against the real service.
type API interface {
	ListChats(ctx context.Context) ([]ChatEntry, error)
	StartChat(ctx context.Context, otherUserID int) (models.Chat, error)
	Messages(ctx context.Context, chatID int) ([]enricher.EnrichedMessage, error)
	SendMessage(ctx context.Context, chatID int, draft models.MessageDraft) (models.Message, error)
	SendBatch(ctx context.Context, chatID int, drafts []models.MessageDraft) error
	MarkRead(ctx context.Context, chatID int) error
	EditMessage(ctx context.Context, messageID int, content string) (models.Message, error)
	DeleteMessages(ctx context.Context, messageIDs []int) (int, error)
	HasUnread(ctx context.Context) (bool, error)
}

// HTTPAPI talks to the chat service over its REST surface.
type HTTPAPI struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPAPI constructs an HTTPAPI with a bearer token.
func NewHTTPAPI(baseURL, token string) *HTTPAPI {
	return &HTTPAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ListChats returns the caller's chat list, most recently active first.
func (a *HTTPAPI) ListChats(ctx context.Context) ([]ChatEntry, error) {
	var resp struct {
		Chats []ChatEntry `json:"chats"`
	}
	if err := a.do(ctx, http.MethodGet, "/chats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// StartChat resolves or creates the chat with another user.
func (a *HTTPAPI) StartChat(ctx context.Context, otherUserID int) (models.Chat, error) {
	var chat models.Chat
	body := map[string]int{"other_user_id": otherUserID}
	if err := a.do(ctx, http.MethodPost, "/chats", body, &chat); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// Messages returns the enriched conversation log, oldest first.
func (a *HTTPAPI) Messages(ctx context.Context, chatID int) ([]enricher.EnrichedMessage, error) {
	var resp struct {
		Messages []enricher.EnrichedMessage `json:"messages"`
	}
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/chats/%d/messages", chatID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage appends one message to the chat.
func (a *HTTPAPI) SendMessage(ctx context.Context, chatID int, draft models.MessageDraft) (models.Message, error) {
	var msg models.Message
	if err := a.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/messages", chatID), draft, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// SendBatch inserts multiple messages in one call.
func (a *HTTPAPI) SendBatch(ctx context.Context, chatID int, drafts []models.MessageDraft) error {
	body := map[string]any{"messages": drafts}
	return a.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/messages/batch", chatID), body, nil)
}

// MarkRead sets the caller's read flag on the chat.
func (a *HTTPAPI) MarkRead(ctx context.Context, chatID int) error {
	return a.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d/read", chatID), struct{}{}, nil)
}

// EditMessage overwrites a message the caller sent.
func (a *HTTPAPI) EditMessage(ctx context.Context, messageID int, content string) (models.Message, error) {
	var msg models.Message
	body := map[string]string{"content": content}
	if err := a.do(ctx, http.MethodPatch, "/messages/"+strconv.Itoa(messageID), body, &msg); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// DeleteMessages soft-deletes a batch of the caller's messages.
func (a *HTTPAPI) DeleteMessages(ctx context.Context, messageIDs []int) (int, error) {
	var resp struct {
		Updated int `json:"updated"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.baseURL+"/messages", encodeBody(map[string]any{"ids": messageIDs}))
	if err != nil {
		return 0, err
	}
	if err := a.send(req, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// HasUnread reports whether any chat is unread for the caller.
func (a *HTTPAPI) HasUnread(ctx context.Context) (bool, error) {
	var resp struct {
		Unread bool `json:"unread"`
	}
	if err := a.do(ctx, http.MethodGet, "/chats/unread", nil, &resp); err != nil {
		return false, err
	}
	return resp.Unread, nil
}

func encodeBody(body any) *bytes.Reader {
	data, _ := json.Marshal(body)
	return bytes.NewReader(data)
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		reader = encodeBody(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	return a.send(req, out)
}

func (a *HTTPAPI) send(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat service request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("chat service request: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
