package enricher

import (
	"context"
	"log"
	"sync"

	"deckchat-service/internal/catalog"
	"deckchat-service/internal/models"
)

// Resolver is the slice of the catalog the enricher needs. *catalog.Client
// and CachedResolver both satisfy it.
type Resolver interface {
	Deck(ctx context.Context, id string) (*catalog.Deck, error)
	Cards(ctx context.Context, ids []string) (map[string]*catalog.Card, error)
	Collection(ctx context.Context, id string) (*catalog.Collection, error)
}

// EnrichedMessage is a stored message decorated with its resolved reference.
// Exactly one payload is set for non-text messages; a dangling reference
// leaves all payloads nil and the message still renders.
type EnrichedMessage struct {
	models.Message
	Deck       *catalog.Deck       `json:"deck,omitempty"`
	Card       *catalog.Card       `json:"card,omitempty"`
	Collection *catalog.Collection `json:"collection,omitempty"`
}

// MessageEnricher resolves message references into renderable payloads.
type MessageEnricher interface {
	Enrich(ctx context.Context, msgs []models.Message) []EnrichedMessage
}

// Enricher batches reference lookups per type against the catalog. It is
// read-only: stored messages are never mutated.
type Enricher struct {
	resolver Resolver
}

// NewEnricher constructs an Enricher.
func NewEnricher(resolver Resolver) *Enricher {
	return &Enricher{resolver: resolver}
}

// Enrich partitions messages by type, resolves the distinct reference ids per
// type in parallel, and attaches payloads. Each failed lookup is logged and
// mapped to a nil payload for that message; enrichment never aborts the page.
func (e *Enricher) Enrich(ctx context.Context, msgs []models.Message) []EnrichedMessage {
	deckIDs := distinctRefs(msgs, models.MessageTypeDeck)
	cardIDs := distinctRefs(msgs, models.MessageTypeCard)
	collectionIDs := distinctRefs(msgs, models.MessageTypeCollection)

	var (
		wg          sync.WaitGroup
		decks       = map[string]*catalog.Deck{}
		cards       = map[string]*catalog.Card{}
		collections = map[string]*catalog.Collection{}
		decksMu     sync.Mutex
		colsMu      sync.Mutex
	)

	if len(deckIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range deckIDs {
				deck, err := e.resolver.Deck(ctx, id)
				if err != nil {
					log.Printf("deck lookup failed for %s: %v", id, err)
					continue
				}
				decksMu.Lock()
				decks[id] = deck
				decksMu.Unlock()
			}
		}()
	}

	if len(cardIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved, err := e.resolver.Cards(ctx, cardIDs)
			if err != nil {
				log.Printf("card batch lookup failed: %v", err)
				return
			}
			cards = resolved
		}()
	}

	if len(collectionIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range collectionIDs {
				col, err := e.resolver.Collection(ctx, id)
				if err != nil {
					log.Printf("collection lookup failed for %s: %v", id, err)
					continue
				}
				colsMu.Lock()
				collections[id] = col
				colsMu.Unlock()
			}
		}()
	}

	wg.Wait()

	enriched := make([]EnrichedMessage, 0, len(msgs))
	for _, m := range msgs {
		em := EnrichedMessage{Message: m}
		if m.RefID != nil {
			switch m.Type {
			case models.MessageTypeDeck:
				em.Deck = decks[*m.RefID]
			case models.MessageTypeCard:
				em.Card = cards[*m.RefID]
			case models.MessageTypeCollection:
				em.Collection = collections[*m.RefID]
			}
		}
		enriched = append(enriched, em)
	}
	return enriched
}

func distinctRefs(msgs []models.Message, mtype models.MessageType) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, m := range msgs {
		if m.Type != mtype || m.RefID == nil || *m.RefID == "" {
			continue
		}
		if _, ok := seen[*m.RefID]; ok {
			continue
		}
		seen[*m.RefID] = struct{}{}
		ids = append(ids, *m.RefID)
	}
	return ids
}
