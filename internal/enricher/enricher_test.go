package enricher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckchat-service/internal/catalog"
	"deckchat-service/internal/models"
)

type fakeResolver struct {
	decks       map[string]*catalog.Deck
	cards       map[string]*catalog.Card
	collections map[string]*catalog.Collection
	deckCalls   int
}

func (f *fakeResolver) Deck(ctx context.Context, id string) (*catalog.Deck, error) {
	f.deckCalls++
	if d, ok := f.decks[id]; ok {
		return d, nil
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeResolver) Cards(ctx context.Context, ids []string) (map[string]*catalog.Card, error) {
	out := map[string]*catalog.Card{}
	for _, id := range ids {
		if c, ok := f.cards[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeResolver) Collection(ctx context.Context, id string) (*catalog.Collection, error) {
	if c, ok := f.collections[id]; ok {
		return c, nil
	}
	return nil, catalog.ErrNotFound
}

func ref(id string) *string { return &id }

func TestEnrichAttachesPayloadsByType(t *testing.T) {
	resolver := &fakeResolver{
		decks: map[string]*catalog.Deck{"d1": {ID: "d1", Name: "Burn"}},
		cards: map[string]*catalog.Card{"c1": {ID: "c1", Name: "Bolt"}},
	}
	e := NewEnricher(resolver)

	msgs := []models.Message{
		{ID: 1, Type: models.MessageTypeText, Content: "hi"},
		{ID: 2, Type: models.MessageTypeDeck, Content: "look", RefID: ref("d1")},
		{ID: 3, Type: models.MessageTypeCard, Content: "this one", RefID: ref("c1")},
	}

	enriched := e.Enrich(context.Background(), msgs)
	require.Len(t, enriched, 3)

	assert.Nil(t, enriched[0].Deck)
	assert.Nil(t, enriched[0].Card)

	require.NotNil(t, enriched[1].Deck)
	assert.Equal(t, "Burn", enriched[1].Deck.Name)

	require.NotNil(t, enriched[2].Card)
	assert.Equal(t, "Bolt", enriched[2].Card.Name)
}

func TestEnrichDanglingReferenceRendersNil(t *testing.T) {
	e := NewEnricher(&fakeResolver{})

	msgs := []models.Message{
		{ID: 1, Type: models.MessageTypeDeck, Content: "gone", RefID: ref("missing")},
	}

	enriched := e.Enrich(context.Background(), msgs)
	require.Len(t, enriched, 1)
	assert.Nil(t, enriched[0].Deck)
	assert.Equal(t, "gone", enriched[0].Content)
}

func TestEnrichDeduplicatesLookups(t *testing.T) {
	resolver := &fakeResolver{decks: map[string]*catalog.Deck{"d1": {ID: "d1"}}}
	e := NewEnricher(resolver)

	msgs := []models.Message{
		{ID: 1, Type: models.MessageTypeDeck, Content: "a", RefID: ref("d1")},
		{ID: 2, Type: models.MessageTypeDeck, Content: "b", RefID: ref("d1")},
	}

	enriched := e.Enrich(context.Background(), msgs)
	require.Len(t, enriched, 2)
	assert.Equal(t, 1, resolver.deckCalls)
	assert.NotNil(t, enriched[0].Deck)
	assert.NotNil(t, enriched[1].Deck)
}

func TestEnrichEmptyLog(t *testing.T) {
	e := NewEnricher(&fakeResolver{})
	assert.Empty(t, e.Enrich(context.Background(), nil))
}
