package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"deckchat-service/internal/models"
)

func TestHubAddAndRemoveChatClient(t *testing.T) {
	hub := NewHub()

	hub.AddChatClient(1, nil, ConnInfo{ConnID: "c1", UserID: 1})
	if len(hub.chatRooms) != 1 {
		t.Fatalf("expected chat room to be created")
	}
	if len(hub.chatConnInfo) != 1 {
		t.Fatalf("expected conn info to be recorded")
	}

	hub.RemoveChatClient(1, nil)
	if len(hub.chatRooms) != 0 {
		t.Fatalf("expected chat room to be removed")
	}
	if len(hub.chatConnInfo) != 0 {
		t.Fatalf("expected conn info to be removed")
	}
}

func TestHubAddAndRemoveUserClient(t *testing.T) {
	hub := NewHub()

	hub.AddUserClient(2, nil, ConnInfo{ConnID: "c2", UserID: 2})
	if len(hub.userRooms) != 1 {
		t.Fatalf("expected user room to be created")
	}

	hub.RemoveUserClient(2, nil)
	if len(hub.userRooms) != 0 {
		t.Fatalf("expected user room to be removed")
	}
}

// dialTestConn returns a client-side websocket connection whose server side
// just drains incoming frames.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	upgr := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgr.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastDuringMembershipChanges(t *testing.T) {
	hub := NewHub()
	chat := models.Chat{ID: 1, ParticipantA: 1, ParticipantB: 2}

	stable := dialTestConn(t)
	hub.AddChatClient(1, stable, ConnInfo{ConnID: "stable"})
	hub.AddUserClient(1, stable, ConnInfo{ConnID: "stable"})

	churn := dialTestConn(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.BroadcastMessage(1, models.Message{ID: i, ChatID: 1, Content: "hi"})
			hub.BroadcastChatUpdate(chat)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.AddChatClient(1, churn, ConnInfo{ConnID: "churn"})
			hub.AddUserClient(1, churn, ConnInfo{ConnID: "churn"})
			hub.RemoveChatClient(1, churn)
			hub.RemoveUserClient(1, churn)
		}
	}()
	wg.Wait()
}

func TestHubRemoveUnknownClientIsNoop(t *testing.T) {
	hub := NewHub()

	hub.RemoveChatClient(99, nil)
	hub.RemoveUserClient(99, nil)
	if len(hub.chatRooms) != 0 || len(hub.userRooms) != 0 {
		t.Fatalf("expected hub to stay empty")
	}
}
