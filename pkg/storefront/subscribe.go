package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string `json:"type"`
	OrderID uint   `json:"orderId,omitempty"`
	Order   *Order `json:"order,omitempty"`
	Message string `json:"message,omitempty"`
}

// Subscribe calls fn with every status update pushed for orderID until
// cancel is called or ctx ends. Updates sent while the connection is down
// are lost: after a drop the subscription reconnects once and fetches the
// current order once in their place. A second drop ends it.
func (s *Session) Subscribe(ctx context.Context, orderID uint, fn func(*Order)) (cancel func(), err error) {
	_, cancel, err = s.subscribe(ctx, orderID, fn)
	if err != nil {
		return nil, err
	}
	return cancel, nil
}

func (s *Session) subscribe(ctx context.Context, orderID uint, fn func(*Order)) (*watch, func(), error) {
	conn, err := s.joinOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	subCtx, stop := context.WithCancel(ctx)
	w := &watch{conn: conn, done: make(chan struct{})}
	go func() {
		<-subCtx.Done()
		w.close(orderID)
	}()
	go func() {
		s.watchOrder(subCtx, w, orderID, fn)
		stop()
	}()

	var once sync.Once
	return w, func() { once.Do(stop) }, nil
}

type watch struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// swap installs a reconnected socket unless the watch was closed meanwhile.
func (w *watch) swap(conn *websocket.Conn) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		conn.Close()
		return false
	}
	w.conn = conn
	return true
}

func (w *watch) current() *websocket.Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn
}

func (w *watch) close(orderID uint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	defer close(w.done)
	w.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = w.conn.WriteJSON(wsMessage{Type: "leave-order", OrderID: orderID})
	w.conn.Close()
}

func (s *Session) watchOrder(ctx context.Context, w *watch, orderID uint, fn func(*Order)) {
	reconnected := false
	for {
		readUpdates(w.current(), orderID, fn)
		if ctx.Err() != nil || reconnected {
			return
		}
		reconnected = true

		conn, err := s.joinOrder(ctx, orderID)
		if err != nil || !w.swap(conn) {
			return
		}
		if order, err := s.Order(ctx, orderID); err == nil {
			fn(order)
		}
	}
}

func readUpdates(conn *websocket.Conn, orderID uint, fn func(*Order)) {
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "order-updated" && msg.OrderID == orderID && msg.Order != nil {
			fn(msg.Order)
		}
	}
}

// joinOrder dials the realtime endpoint and waits for the server to confirm
// the room join.
func (s *Session) joinOrder(ctx context.Context, orderID uint) (*websocket.Conn, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrLoggedOut
	}

	endpoint, err := websocketURL(s.client.BaseURL, token)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			s.Logout()
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to connect to order updates: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(wsMessage{Type: "join-order", OrderID: orderID}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to join order %d: %w", orderID, err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to join order %d: %w", orderID, err)
	}
	if ack.Type != "joined" {
		conn.Close()
		msg := ack.Message
		if msg == "" {
			msg = "order updates are not available"
		}
		return nil, &APIError{StatusCode: http.StatusForbidden, Message: msg}
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	return conn, nil
}

func websocketURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("base URL must be http or https")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}
