package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/decks/d-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"d-1","name":"Burn","card_count":60}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	deck, err := client.Deck(context.Background(), "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Burn", deck.Name)
	assert.Equal(t, 60, deck.CardCount)
}

func TestDeckNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Deck(context.Background(), "gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCardsBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards", r.URL.Path)
		require.Equal(t, "c1,c2", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cards":[{"id":"c1","name":"Bolt"},{"id":"c2","name":"Path"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	cards, err := client.Cards(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Bolt", cards["c1"].Name)
	assert.Equal(t, "Path", cards["c2"].Name)
}

func TestCardsEmptyInputSkipsRequest(t *testing.T) {
	client := NewClient("http://catalog.invalid")
	cards, err := client.Cards(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestBulkUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		require.Equal(t, "1,2", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"users":[{"id":1,"username":"alice"},{"id":2,"username":"bob"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	users, err := client.BulkUsers(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Collection(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
