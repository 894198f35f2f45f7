package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Session is the logged-in customer's application context. It holds the
// token, the user and the last cart snapshot the server confirmed. Cart
// state is never computed locally; each mutation replaces it with the
// server's response. Independent calls are not serialized, so when two
// mutations race the last response wins.
type Session struct {
	client *Client

	mu     sync.RWMutex
	token  string
	user   *User
	cart   *Cart
	closed bool
}

func newSession(client *Client, token string, user *User) *Session {
	return &Session{client: client, token: token, user: user}
}

// Logout drops the token and every cached snapshot. It is safe to call more
// than once.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.token = ""
	s.user = nil
	s.cart = nil
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Cart returns the last server-confirmed cart without a round trip.
func (s *Session) Cart() *Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart
}

func (s *Session) do(ctx context.Context, method, path string, body, dest interface{}) error {
	token := s.Token()
	if token == "" {
		return ErrLoggedOut
	}
	err := s.client.do(ctx, method, path, token, body, dest)
	if errors.Is(err, ErrUnauthorized) {
		s.Logout()
	}
	return err
}

func (s *Session) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.do(ctx, http.MethodGet, "/api/user/me", nil, &user); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.user = &user
	}
	s.mu.Unlock()
	return &user, nil
}

// GetCart fetches the authoritative cart and stores it.
func (s *Session) GetCart(ctx context.Context) (*Cart, error) {
	return s.syncCart(ctx, http.MethodGet, "/api/cart", nil)
}

func (s *Session) AddItem(ctx context.Context, productID uint, customization Customization, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	body := map[string]interface{}{
		"productId":     productID,
		"customization": customization,
		"quantity":      quantity,
	}
	return s.syncCart(ctx, http.MethodPost, "/api/cart", body)
}

// UpdateQuantity rejects quantities below 1 without contacting the server;
// use RemoveItem to drop a line.
func (s *Session) UpdateQuantity(ctx context.Context, itemID uint, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.syncCart(ctx, http.MethodPut, fmt.Sprintf("/api/cart/%d", itemID), map[string]int{"quantity": quantity})
}

func (s *Session) RemoveItem(ctx context.Context, itemID uint) (*Cart, error) {
	return s.syncCart(ctx, http.MethodDelete, fmt.Sprintf("/api/cart/%d", itemID), nil)
}

func (s *Session) Clear(ctx context.Context) (*Cart, error) {
	return s.syncCart(ctx, http.MethodDelete, "/api/cart", nil)
}

func (s *Session) syncCart(ctx context.Context, method, path string, body interface{}) (*Cart, error) {
	var cart Cart
	if err := s.do(ctx, method, path, body, &cart); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.cart = &cart
	}
	s.mu.Unlock()
	return &cart, nil
}

// ValidatePromo previews a promo against orderAmount. A refused code comes
// back as *PromoRejection.
func (s *Session) ValidatePromo(ctx context.Context, code string, orderAmount float64) (*Discount, error) {
	var discount Discount
	body := map[string]interface{}{"code": code, "orderAmount": orderAmount}
	if err := s.do(ctx, http.MethodPost, "/api/promos/validate", body, &discount); err != nil {
		return nil, err
	}
	return &discount, nil
}

// PlaceOrder submits the current cart. The server empties the cart when the
// order is accepted, so the local snapshot is refreshed afterwards.
func (s *Session) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	var order Order
	if err := s.do(ctx, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, err
	}
	// the order stands even if the refresh fails
	_, _ = s.GetCart(ctx)
	return &order, nil
}

func (s *Session) MyOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := s.do(ctx, http.MethodGet, "/api/orders/my-orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Session) Order(ctx context.Context, id uint) (*Order, error) {
	var order Order
	if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Session) CancelOrder(ctx context.Context, id uint) (*Order, error) {
	var order Order
	if err := s.do(ctx, http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// StartCardPayment opens a hosted checkout session for a card order.
func (s *Session) StartCardPayment(ctx context.Context, orderID uint) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := s.do(ctx, http.MethodPost, "/api/payment/create-checkout-session", map[string]uint{"orderId": orderID}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// VerifyPayment is called when the gateway redirects back with sessionID.
func (s *Session) VerifyPayment(ctx context.Context, sessionID string, orderID uint) (*Order, error) {
	var order Order
	body := map[string]interface{}{"sessionId": sessionID, "orderId": orderID}
	if err := s.do(ctx, http.MethodPost, "/api/payment/verify-payment", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
