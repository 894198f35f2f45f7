package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pizzeria/internal/middleware"
	"pizzeria/internal/models"
	pizzeriaredis "pizzeria/internal/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ownerOnly(owners map[uint]uint) Authorizer {
	return func(_ context.Context, userID uint, isAdmin bool, orderID uint) error {
		if isAdmin || owners[orderID] == userID {
			return nil
		}
		return errors.New("forbidden")
	}
}

func receive(t *testing.T, ch <-chan *models.Order) *models.Order {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for order update")
		return nil
	}
}

func TestHub_LocalDelivery(t *testing.T) {
	hub := NewHub(nil, nil, zap.NewNop())

	got := make(chan *models.Order, 1)
	cancel := hub.Subscribe(5, func(o *models.Order) { got <- o })
	other := make(chan *models.Order, 1)
	hub.Subscribe(6, func(o *models.Order) { other <- o })
	assert.Equal(t, 1, hub.RoomSize(5))

	hub.NotifyOrderUpdated(context.Background(), &models.Order{ID: 5, Status: string(models.StatusPrepared)})
	assert.Equal(t, string(models.StatusPrepared), receive(t, got).Status)
	assert.Empty(t, other)

	cancel()
	cancel()
	assert.Equal(t, 0, hub.RoomSize(5))
	hub.NotifyOrderUpdated(context.Background(), &models.Order{ID: 5})
	assert.Empty(t, got)
}

func TestHub_FanOutThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	broker := pizzeriaredis.NewFromRedis(rdb)

	// two instances sharing one broker
	publisher := NewHub(broker, nil, zap.NewNop())
	watcher := NewHub(broker, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	got := make(chan *models.Order, 1)
	watcher.Subscribe(9, func(o *models.Order) {
		select {
		case got <- o:
		default:
		}
	})

	// Run subscribes asynchronously, so keep publishing until delivery.
	deadline := time.After(2 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		publisher.NotifyOrderUpdated(ctx, &models.Order{ID: 9, Status: string(models.StatusOutForDelivery)})
		select {
		case o := <-got:
			assert.Equal(t, string(models.StatusOutForDelivery), o.Status)
			cancel()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("Run did not stop after cancel")
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for fan-out")
		case <-tick.C:
		}
	}
}

func newWSServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		var id uint
		switch c.Query("user") {
		case "alice":
			id = 1
		case "bob":
			id = 2
		}
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRole, "customer")
		c.Next()
	}, hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + user
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeWS_JoinReceiveLeave(t *testing.T) {
	hub := NewHub(nil, ownerOnly(map[uint]uint{42: 1}), zap.NewNop())
	srv := newWSServer(t, hub)
	conn := dial(t, srv, "alice")

	require.NoError(t, conn.WriteJSON(Message{Type: TypeJoinOrder, OrderID: 42}))
	joined := readMessage(t, conn)
	assert.Equal(t, TypeJoined, joined.Type)
	assert.Equal(t, uint(42), joined.OrderID)
	assert.Equal(t, 1, hub.RoomSize(42))

	hub.NotifyOrderUpdated(context.Background(), &models.Order{ID: 42, Status: string(models.StatusConfirmed)})
	update := readMessage(t, conn)
	assert.Equal(t, TypeOrderUpdated, update.Type)
	require.NotNil(t, update.Order)
	assert.Equal(t, string(models.StatusConfirmed), update.Order.Status)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeLeaveOrder, OrderID: 42}))
	left := readMessage(t, conn)
	assert.Equal(t, TypeLeaveOrder, left.Type)
	assert.Equal(t, 0, hub.RoomSize(42))
}

func TestServeWS_RejectsForeignOrder(t *testing.T) {
	hub := NewHub(nil, ownerOnly(map[uint]uint{42: 1}), zap.NewNop())
	srv := newWSServer(t, hub)
	conn := dial(t, srv, "bob")

	require.NoError(t, conn.WriteJSON(Message{Type: TypeJoinOrder, OrderID: 42}))
	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, 0, hub.RoomSize(42))
}

func TestServeWS_DisconnectLeavesRooms(t *testing.T) {
	hub := NewHub(nil, nil, zap.NewNop())
	srv := newWSServer(t, hub)
	conn := dial(t, srv, "alice")

	require.NoError(t, conn.WriteJSON(Message{Type: TypeJoinOrder, OrderID: 3}))
	readMessage(t, conn)
	require.Equal(t, 1, hub.RoomSize(3))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.RoomSize(3) == 0 }, 2*time.Second, 10*time.Millisecond)
}
