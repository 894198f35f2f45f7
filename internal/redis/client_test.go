package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCart struct {
	UserID uint  `json:"userId"`
	Items  []int `json:"items"`
}

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewFromRedis(rdb), mr
}

func TestCart_SetGetDelete(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetCart(ctx, 7, 0, cachedCart{UserID: 7, Items: []int{1, 2}}, time.Minute))
	assert.True(t, mr.Exists("cart:7"))

	var got cachedCart
	require.NoError(t, client.GetCart(ctx, 7, &got))
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, []int{1, 2}, got.Items)

	require.NoError(t, client.InvalidateCart(ctx, 7))
	assert.ErrorIs(t, client.GetCart(ctx, 7, &got), ErrCacheMiss)
}

func TestCart_SetSkippedAfterInvalidate(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	gen, err := client.CartGeneration(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	// a mutation lands between the reader's generation read and its fill
	require.NoError(t, client.InvalidateCart(ctx, 4))
	require.NoError(t, client.SetCart(ctx, 4, 1, cachedCart{UserID: 4, Items: []int{9}}, time.Minute))

	err = client.SetCart(ctx, 4, gen, cachedCart{UserID: 4}, time.Minute)
	assert.ErrorIs(t, err, ErrCartChanged)

	var got cachedCart
	require.NoError(t, client.GetCart(ctx, 4, &got))
	assert.Equal(t, []int{9}, got.Items)

	current, err := client.CartGeneration(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
	assert.True(t, mr.Exists("cart:4:gen"))
}

func TestCart_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetCart(ctx, 1, 0, cachedCart{UserID: 1}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got cachedCart
	assert.ErrorIs(t, client.GetCart(ctx, 1, &got), ErrCacheMiss)
}

func TestCart_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:3", "{not json"))

	var got cachedCart
	err := client.GetCart(context.Background(), 3, &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "failed to unmarshal cart")
}

func TestOrderUpdates_PublishSubscribe(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := client.SubscribeOrderUpdates(ctx)
	require.NoError(t, err)

	require.NoError(t, client.PublishOrderUpdate(ctx, []byte(`{"orderId":42}`)))

	select {
	case payload := <-updates:
		assert.JSONEq(t, `{"orderId":42}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}

	cancel()
	select {
	case _, open := <-updates:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after cancel")
	}
}
