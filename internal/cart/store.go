package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/grocer-backend/pkg/redis"
	"github.com/google/uuid"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(supermarketID, sessionID string) string
}

// Store keeps session carts in Redis as JSON. Every save refreshes the TTL so
// an abandoned cart expires on its own.
type Store struct {
	kv  kvStore
	ttl time.Duration
}

// NewStore builds a cart store on top of the redis client.
func NewStore(kv kvStore, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// Load returns the stored cart, or an empty one when none exists.
func (s *Store) Load(ctx context.Context, supermarketID uuid.UUID, sessionID string) (*Cart, error) {
	raw, err := s.kv.Get(ctx, s.key(supermarketID, sessionID))
	if err != nil {
		if redis.IsMiss(err) {
			return New(supermarketID, sessionID), nil
		}
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return &c, nil
}

// Save writes the cart. An empty cart is deleted instead of stored.
func (s *Store) Save(ctx context.Context, c *Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, c.SupermarketID, c.SessionID)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(c.SupermarketID, c.SessionID), payload, s.ttl)
}

// Delete removes the stored cart.
func (s *Store) Delete(ctx context.Context, supermarketID uuid.UUID, sessionID string) error {
	return s.kv.Del(ctx, s.key(supermarketID, sessionID))
}

func (s *Store) key(supermarketID uuid.UUID, sessionID string) string {
	return s.kv.CartKey(supermarketID.String(), sessionID)
}
