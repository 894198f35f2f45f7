package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"pizzeria/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the socket is authenticated by the token query parameter
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  uint
	isAdmin bool
	send    chan []byte

	mu     sync.Mutex
	rooms  map[uint]*listener
	closed bool
}

// ServeWS upgrades an authenticated request and serves join/leave requests
// for order rooms.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		hub:     h,
		conn:    conn,
		userID:  middleware.CurrentUserID(c),
		isAdmin: middleware.IsAdmin(c),
		send:    make(chan []byte, sendBuffer),
		rooms:   make(map[uint]*listener),
	}
	go cl.writePump()
	cl.readPump()
}

func (cl *client) readPump() {
	defer cl.close()

	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.hub.logger.Debug("websocket closed", zap.Uint("user_id", cl.userID), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case TypeJoinOrder:
			cl.joinOrder(msg.OrderID)
		case TypeLeaveOrder:
			cl.leaveOrder(msg.OrderID)
			cl.enqueue(Message{Type: TypeLeaveOrder, OrderID: msg.OrderID})
		default:
			cl.enqueue(Message{Type: TypeError, Message: "unknown message type"})
		}
	}
}

func (cl *client) joinOrder(orderID uint) {
	if cl.hub.authorize != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := cl.hub.authorize(ctx, cl.userID, cl.isAdmin, orderID)
		cancel()
		if err != nil {
			cl.enqueue(Message{Type: TypeError, OrderID: orderID, Message: "You cannot track this order"})
			return
		}
	}

	cl.mu.Lock()
	if _, joined := cl.rooms[orderID]; !joined && !cl.closed {
		l := &listener{fn: cl.enqueue}
		cl.rooms[orderID] = l
		cl.hub.join(orderID, l)
	}
	cl.mu.Unlock()
	cl.enqueue(Message{Type: TypeJoined, OrderID: orderID})
}

func (cl *client) leaveOrder(orderID uint) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if l, ok := cl.rooms[orderID]; ok {
		cl.hub.leave(orderID, l)
		delete(cl.rooms, orderID)
	}
}

// enqueue drops the client when it cannot keep up.
func (cl *client) enqueue(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return
	}
	select {
	case cl.send <- payload:
	default:
		cl.hub.logger.Warn("websocket client too slow, disconnecting", zap.Uint("user_id", cl.userID))
		cl.closeLocked()
	}
}

func (cl *client) close() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.closeLocked()
}

func (cl *client) closeLocked() {
	if cl.closed {
		return
	}
	cl.closed = true
	for orderID, l := range cl.rooms {
		cl.hub.leave(orderID, l)
	}
	cl.rooms = nil
	close(cl.send)
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
