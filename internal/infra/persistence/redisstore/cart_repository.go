package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	domcart "example.com/food-ordering/internal/domain/cart"
)

const keyPrefix = "cart:"

// incrementScript adds ARGV[2] units of field ARGV[1] unless the result would
// exceed ARGV[3], in which case it returns -1 and leaves the hash unchanged.
var incrementScript = redis.NewScript(`
local q = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local n = tonumber(ARGV[2])
if q + n > tonumber(ARGV[3]) then
  return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], n)
`)

// decrementScript removes one unit of field ARGV[1], deleting the field when
// it reaches zero. An absent field is left alone.
var decrementScript = redis.NewScript(`
local q = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
if q <= 0 then
  return 0
end
if q == 1 then
  redis.call('HDEL', KEYS[1], ARGV[1])
  return 0
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
`)

// CartRepository stores each cart as a hash of item id to quantity under
// cart:{userId}. Single-item changes run as scripts so concurrent adds and
// removes on the same cart never lose an update.
type CartRepository struct {
	client redis.UniversalClient
}

func NewCartRepository(client redis.UniversalClient) *CartRepository {
	return &CartRepository{client: client}
}

func cartKey(userID string) string {
	return keyPrefix + userID
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	quantities := make(map[domcart.ItemID]int, len(fields))
	for id, raw := range fields {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("cart %s item %s: %w", userID, id, err)
		}
		quantities[domcart.ItemID(id)] = q
	}
	return domcart.FromQuantities(userID, quantities), nil
}

func (r *CartRepository) Save(ctx context.Context, c *domcart.Cart) error {
	key := cartKey(c.UserID)
	items := c.Items()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(items) == 0 {
			return nil
		}
		values := make(map[string]interface{}, len(items))
		for id, q := range items {
			values[string(id)] = q
		}
		pipe.HSet(ctx, key, values)
		return nil
	})
	return err
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKey(userID)).Err()
}

func (r *CartRepository) Increment(ctx context.Context, userID string, id domcart.ItemID, n int) error {
	if id == "" {
		return domcart.ErrInvalidItem
	}
	if n <= 0 {
		return domcart.ErrInvalidQuantity
	}
	res, err := incrementScript.Run(ctx, r.client, []string{cartKey(userID)}, string(id), n, domcart.MaxQuantity).Int()
	if err != nil {
		return err
	}
	if res < 0 {
		return domcart.ErrQuantityLimit
	}
	return nil
}

func (r *CartRepository) Decrement(ctx context.Context, userID string, id domcart.ItemID) error {
	if id == "" {
		return domcart.ErrInvalidItem
	}
	return decrementScript.Run(ctx, r.client, []string{cartKey(userID)}, string(id)).Err()
}
