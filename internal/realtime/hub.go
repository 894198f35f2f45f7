// Package realtime pushes order updates to clients that joined an order's
// room over a websocket. Updates fan out across server instances through
// Redis pub/sub; missed updates are not buffered.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"pizzeria/internal/models"

	"go.uber.org/zap"
)

const (
	TypeJoinOrder    = "join-order"
	TypeLeaveOrder   = "leave-order"
	TypeJoined       = "joined"
	TypeOrderUpdated = "order-updated"
	TypeError        = "error"
)

type Message struct {
	Type    string        `json:"type"`
	OrderID uint          `json:"orderId,omitempty"`
	Order   *models.Order `json:"order,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Broker relays order updates between server instances.
type Broker interface {
	PublishOrderUpdate(ctx context.Context, payload []byte) error
	SubscribeOrderUpdates(ctx context.Context) (<-chan []byte, error)
}

// Authorizer decides whether a user may watch an order.
type Authorizer func(ctx context.Context, userID uint, isAdmin bool, orderID uint) error

type listener struct {
	fn func(Message)
}

type Hub struct {
	mu        sync.RWMutex
	rooms     map[uint]map[*listener]struct{}
	broker    Broker
	authorize Authorizer
	logger    *zap.Logger
}

// NewHub builds a hub. With a nil broker updates are delivered to local
// listeners only.
func NewHub(broker Broker, authorize Authorizer, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:     make(map[uint]map[*listener]struct{}),
		broker:    broker,
		authorize: authorize,
		logger:    logger,
	}
}

// Subscribe registers fn for updates of orderID until cancel is called.
func (h *Hub) Subscribe(orderID uint, fn func(*models.Order)) (cancel func()) {
	l := &listener{fn: func(m Message) { fn(m.Order) }}
	h.join(orderID, l)
	var once sync.Once
	return func() { once.Do(func() { h.leave(orderID, l) }) }
}

func (h *Hub) join(orderID uint, l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[*listener]struct{})
		h.rooms[orderID] = room
	}
	room[l] = struct{}{}
}

func (h *Hub) leave(orderID uint, l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[orderID]
	delete(room, l)
	if len(room) == 0 {
		delete(h.rooms, orderID)
	}
}

// RoomSize reports how many listeners watch orderID.
func (h *Hub) RoomSize(orderID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}

// NotifyOrderUpdated sends the order snapshot to everyone in its room, on
// every instance when a broker is configured.
func (h *Hub) NotifyOrderUpdated(ctx context.Context, order *models.Order) {
	msg := Message{Type: TypeOrderUpdated, OrderID: order.ID, Order: order}
	if h.broker == nil {
		h.broadcast(msg)
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode order update", zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}
	if err := h.broker.PublishOrderUpdate(ctx, payload); err != nil {
		h.logger.Warn("failed to publish order update, delivering locally", zap.Uint("order_id", order.ID), zap.Error(err))
		h.broadcast(msg)
	}
}

// Run relays broker messages to local rooms until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.broker == nil {
		<-ctx.Done()
		return nil
	}
	updates, err := h.broker.SubscribeOrderUpdates(ctx)
	if err != nil {
		return err
	}
	for payload := range updates {
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Warn("dropping malformed order update", zap.Error(err))
			continue
		}
		h.broadcast(msg)
	}
	return ctx.Err()
}

func (h *Hub) broadcast(msg Message) {
	h.mu.RLock()
	listeners := make([]*listener, 0, len(h.rooms[msg.OrderID]))
	for l := range h.rooms[msg.OrderID] {
		listeners = append(listeners, l)
	}
	h.mu.RUnlock()

	for _, l := range listeners {
		l.fn(msg)
	}
}
