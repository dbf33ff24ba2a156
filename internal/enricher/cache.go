package enricher

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"deckchat-service/internal/catalog"
	"deckchat-service/internal/observability"
)

const (
	deckCachePrefix       = "catalog:deck:"
	cardCachePrefix       = "catalog:card:"
	collectionCachePrefix = "catalog:collection:"

	// Cards are immutable in the catalog; decks and collections are edited
	// by their owners and get a shorter TTL.
	cardTTL       = 24 * time.Hour
	deckTTL       = 5 * time.Minute
	collectionTTL = 5 * time.Minute
)

// CachedResolver is a redis read-through cache in front of a Resolver. Redis
// outages degrade to direct catalog calls.
type CachedResolver struct {
	rdb  *redis.Client
	next Resolver
}

// NewCachedResolver constructs a CachedResolver.
func NewCachedResolver(rdb *redis.Client, next Resolver) *CachedResolver {
	return &CachedResolver{rdb: rdb, next: next}
}

// Deck resolves a deck through the cache.
func (c *CachedResolver) Deck(ctx context.Context, id string) (*catalog.Deck, error) {
	var deck catalog.Deck
	if c.cacheGet(ctx, deckCachePrefix+id, &deck) {
		return &deck, nil
	}
	resolved, err := c.next.Deck(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cacheSet(ctx, deckCachePrefix+id, resolved, deckTTL)
	return resolved, nil
}

// Cards resolves a card batch, serving cached entries and fetching only the
// remainder from the catalog.
func (c *CachedResolver) Cards(ctx context.Context, ids []string) (map[string]*catalog.Card, error) {
	result := make(map[string]*catalog.Card, len(ids))
	var missing []string
	for _, id := range ids {
		var card catalog.Card
		if c.cacheGet(ctx, cardCachePrefix+id, &card) {
			result[id] = &card
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.next.Cards(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, card := range fetched {
		result[id] = card
		c.cacheSet(ctx, cardCachePrefix+id, card, cardTTL)
	}
	return result, nil
}

// Collection resolves a collection through the cache.
func (c *CachedResolver) Collection(ctx context.Context, id string) (*catalog.Collection, error) {
	var col catalog.Collection
	if c.cacheGet(ctx, collectionCachePrefix+id, &col) {
		return &col, nil
	}
	resolved, err := c.next.Collection(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cacheSet(ctx, collectionCachePrefix+id, resolved, collectionTTL)
	return resolved, nil
}

func (c *CachedResolver) cacheGet(ctx context.Context, key string, out any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("redis get %s: %v", key, err)
		}
		observability.IncEnrichmentCache("miss")
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("redis decode %s: %v", key, err)
		observability.IncEnrichmentCache("miss")
		return false
	}
	observability.IncEnrichmentCache("hit")
	return true
}

func (c *CachedResolver) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("redis set %s: %v", key, err)
	}
}
