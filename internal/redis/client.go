package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// OrderUpdatesChannel carries order-updated events between server instances.
const OrderUpdatesChannel = "order-updates"

var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing connection.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Cart cache
//
// Every cart has a generation counter next to the cached copy. Invalidation
// bumps it, and a fill only lands when the generation it read before loading
// the cart is still current, so a slow reader cannot put back a cart that a
// mutation has already replaced.

// ErrCartChanged is returned by SetCart when the cart was invalidated after
// the caller read its generation.
var ErrCartChanged = errors.New("cart changed since generation was read")

// CartGeneration returns the current generation, zero if none was recorded.
func (c *Client) CartGeneration(ctx context.Context, userID uint) (int64, error) {
	gen, err := c.rdb.Get(ctx, cartGenKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cart generation: %w", err)
	}
	return gen, nil
}

func (c *Client) SetCart(ctx context.Context, userID uint, generation int64, cart interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	genKey := cartGenKey(userID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return ErrCartChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cartKey(userID), jsonData, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrCartChanged
	}
	return err
}

func (c *Client) GetCart(ctx context.Context, userID uint, dest interface{}) error {
	val, err := c.rdb.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get cart: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return nil
}

// InvalidateCart drops the cached cart and bumps its generation.
func (c *Client) InvalidateCart(ctx context.Context, userID uint) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, cartGenKey(userID))
		pipe.Del(ctx, cartKey(userID))
		return nil
	})
	return err
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

func cartGenKey(userID uint) string {
	return fmt.Sprintf("cart:%d:gen", userID)
}

// Order update fan-out
func (c *Client) PublishOrderUpdate(ctx context.Context, payload []byte) error {
	return c.rdb.Publish(ctx, OrderUpdatesChannel, payload).Err()
}

// SubscribeOrderUpdates returns a channel of raw payloads. It is closed when
// ctx is done or the subscription breaks.
func (c *Client) SubscribeOrderUpdates(ctx context.Context) (<-chan []byte, error) {
	pubsub := c.rdb.Subscribe(ctx, OrderUpdatesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", OrderUpdatesChannel, err)
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
