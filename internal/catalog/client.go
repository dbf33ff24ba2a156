package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound marks a referenced entity that no longer exists. Enrichment
// degrades it to a null payload instead of failing the page.
var ErrNotFound = errors.New("catalog: not found")

// Client talks to the catalog service over HTTP. It covers the three
// reference resolvers (deck by id, cards by id batch, collection by id) and
// the user directory.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a catalog client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Deck fetches a deck by id.
func (c *Client) Deck(ctx context.Context, id string) (*Deck, error) {
	var deck Deck
	if err := c.getJSON(ctx, "/decks/"+url.PathEscape(id), &deck); err != nil {
		return nil, err
	}
	return &deck, nil
}

// Cards fetches multiple cards in one call, keyed by id. Ids the catalog does
// not know are absent from the result.
func (c *Client) Cards(ctx context.Context, ids []string) (map[string]*Card, error) {
	if len(ids) == 0 {
		return map[string]*Card{}, nil
	}
	var resp struct {
		Cards []*Card `json:"cards"`
	}
	path := "/cards?ids=" + url.QueryEscape(strings.Join(ids, ","))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	byID := make(map[string]*Card, len(resp.Cards))
	for _, card := range resp.Cards {
		byID[card.ID] = card
	}
	return byID, nil
}

// Collection fetches a collection by id.
func (c *Client) Collection(ctx context.Context, id string) (*Collection, error) {
	var col Collection
	if err := c.getJSON(ctx, "/collections/"+url.PathEscape(id), &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// User fetches a single directory entry.
func (c *Client) User(ctx context.Context, id int) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/users/"+strconv.Itoa(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// BulkUsers fetches multiple directory entries in one call.
func (c *Client) BulkUsers(ctx context.Context, ids []int) ([]*User, error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	var resp struct {
		Users []*User `json:"users"`
	}
	path := "/users?ids=" + url.QueryEscape(strings.Join(parts, ","))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog request: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
