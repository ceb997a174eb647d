// Package cart persists the shopping cart of logged-in users so it survives
// across browsers and devices.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/kedai-dimesem/storefront/internal/checkout"
)

// DefaultTTL is how long an untouched cart is kept.
const DefaultTTL = 30 * 24 * time.Hour

// Item is one cart line.
type Item struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Store persists carts per user.
type Store interface {
	Load(ctx context.Context, userID int64) ([]Item, error)
	Save(ctx context.Context, userID int64, items []Item) error
}

// RedisStore keeps each cart as a JSON document under cart:<userID>.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore. A non-positive ttl uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(userID int64) string {
	return "cart:" + strconv.FormatInt(userID, 10)
}

// Load returns the stored cart, or an empty cart.
func (s *RedisStore) Load(ctx context.Context, userID int64) ([]Item, error) {
	payload, err := s.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	items := []Item{}
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return items, nil
}

// Save replaces the cart. An empty cart deletes the key.
func (s *RedisStore) Save(ctx context.Context, userID int64, items []Item) error {
	if len(items) == 0 {
		return s.client.Del(ctx, key(userID)).Err()
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(userID), payload, s.ttl).Err()
}

// Normalize validates raw cart lines with the checkout item rules and merges
// lines of the same product.
func Normalize(raw []json.RawMessage) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	index := make(map[int64]int, len(raw))
	for i, r := range raw {
		line, err := checkout.NormalizeItem(i, r)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[line.ProductID]; ok {
			items[pos].Quantity += line.Quantity
			items[pos].Price = line.Price
			items[pos].Name = line.ProductName
			continue
		}
		index[line.ProductID] = len(items)
		items = append(items, Item{ProductID: line.ProductID, Name: line.ProductName, Price: line.Price, Quantity: line.Quantity})
	}
	return items, nil
}

var _ Store = (*RedisStore)(nil)
