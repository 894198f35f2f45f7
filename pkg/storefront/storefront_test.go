package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves just enough of the pizzeria API for the client.
type fakeAPI struct {
	mu       sync.Mutex
	cart     Cart
	requests []string
	expired  bool
}

func writeEnvelope(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.URL.Path != "/api/user/login" && (f.expired || r.Header.Get("Authorization") != "Bearer good-token") {
		writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid or expired token"})
		return
	}

	switch {
	case r.URL.Path == "/api/user/login":
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid email or password"})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{
			"user":        map[string]interface{}{"id": 7, "email": req["email"], "firstName": "Asha"},
			"accessToken": "good-token",
		}})
	case r.Method == http.MethodGet && r.URL.Path == "/api/cart":
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true, "data": f.cart})
	case r.Method == http.MethodPost && r.URL.Path == "/api/cart":
		var req struct {
			ProductID uint `json:"productId"`
			Quantity  int  `json:"quantity"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.cart.Items = append(f.cart.Items, CartItem{ID: uint(len(f.cart.Items) + 1), ProductID: req.ProductID, UnitPrice: 500, Quantity: req.Quantity})
		f.cart.Subtotal += 500 * float64(req.Quantity)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true, "data": f.cart})
	case r.Method == http.MethodPut && r.URL.Path == "/api/cart/1":
		var req struct {
			Quantity int `json:"quantity"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.cart.Items[0].Quantity = req.Quantity
		f.cart.Subtotal = 500 * float64(req.Quantity)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true, "data": f.cart})
	case r.URL.Path == "/api/promos/validate":
		writeEnvelope(w, http.StatusUnprocessableEntity, map[string]interface{}{"success": false, "reason": "expired", "message": "This promo code has expired"})
	case r.Method == http.MethodPost && r.URL.Path == "/api/orders":
		f.cart = Cart{}
		writeEnvelope(w, http.StatusCreated, map[string]interface{}{"success": true, "data": Order{ID: 3, Status: "Received"}})
	case r.URL.Path == "/api/orders/3/cancel":
		writeEnvelope(w, http.StatusConflict, map[string]interface{}{"success": false, "message": "Order cannot be cancelled once it is out for delivery"})
	default:
		writeEnvelope(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "not found"})
	}
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func login(t *testing.T) (*Session, *fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	session, err := client.Login(context.Background(), "asha@example.com", "secret")
	require.NoError(t, err)
	return session, api, client
}

func TestLogin(t *testing.T) {
	session, _, client := login(t)
	assert.True(t, session.LoggedIn())
	assert.Equal(t, "Asha", session.User().FirstName)
	assert.Equal(t, []string{"asha@example.com"}, client.RecentLogins())

	_, err := client.Login(context.Background(), "asha@example.com", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid email or password", apiErr.Message)
	assert.Len(t, client.RecentLogins(), 1)
}

func TestCart_ResyncsFromResponses(t *testing.T) {
	session, api, _ := login(t)
	ctx := context.Background()

	cart, err := session.AddItem(ctx, 3, Customization{Size: "medium", Crust: "thin"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, cart.Subtotal)
	assert.Same(t, cart, session.Cart())

	cart, err = session.UpdateQuantity(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, session.Cart().Items[0].Quantity)
	assert.Equal(t, 1500.0, cart.Subtotal)

	_, err = session.UpdateQuantity(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = session.AddItem(ctx, 3, Customization{}, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 1, api.count("PUT /api/cart/1"), "rejected quantities are never sent")
	assert.Equal(t, 1, api.count("POST /api/cart"))
}

func TestPlaceOrder_RefreshesCart(t *testing.T) {
	session, _, _ := login(t)
	ctx := context.Background()

	_, err := session.AddItem(ctx, 3, Customization{Size: "large"}, 1)
	require.NoError(t, err)

	order, err := session.PlaceOrder(ctx, PlaceOrderRequest{PaymentMode: "cash"})
	require.NoError(t, err)
	assert.Equal(t, uint(3), order.ID)
	assert.Empty(t, session.Cart().Items)
}

func TestErrors(t *testing.T) {
	session, _, _ := login(t)
	ctx := context.Background()

	_, err := session.ValidatePromo(ctx, "OLD", 1000)
	var rejection *PromoRejection
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, "expired", rejection.Reason)
	assert.Equal(t, "This promo code has expired", rejection.Message)

	_, err = session.CancelOrder(ctx, 3)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Order cannot be cancelled once it is out for delivery", apiErr.Message)
	assert.True(t, session.LoggedIn())
}

func TestUnauthorizedLogsOut(t *testing.T) {
	session, api, _ := login(t)
	ctx := context.Background()

	_, err := session.GetCart(ctx)
	require.NoError(t, err)

	api.mu.Lock()
	api.expired = true
	api.mu.Unlock()

	_, err = session.GetCart(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, session.LoggedIn())
	assert.Nil(t, session.Cart())
	assert.Nil(t, session.User())

	_, err = session.MyOrders(ctx)
	assert.ErrorIs(t, err, ErrLoggedOut)
}

func TestRecentLogins(t *testing.T) {
	r := NewRecentLogins(3)
	for _, e := range []string{"a@x.com", "b@x.com", "A@x.com ", "c@x.com", "d@x.com"} {
		r.Add(e)
	}
	assert.Equal(t, []string{"d@x.com", "c@x.com", "a@x.com"}, r.List())
}

// orderStream is a realtime endpoint that pushes one update per connection
// and then drops it.
type orderStream struct {
	connects atomic.Int32
	fetches  atomic.Int32
}

func (o *orderStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/orders/3" {
		o.fetches.Add(1)
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": true, "data": Order{ID: 3, Status: "Out for delivery"}})
		return
	}
	if r.URL.Query().Get("token") != "good-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	n := o.connects.Add(1)

	var join wsMessage
	if err := conn.ReadJSON(&join); err != nil || join.Type != "join-order" {
		return
	}
	if join.OrderID != 3 {
		conn.WriteJSON(wsMessage{Type: "error", OrderID: join.OrderID, Message: "You cannot track this order"})
		return
	}
	conn.WriteJSON(wsMessage{Type: "joined", OrderID: 3})
	if n == 1 {
		conn.WriteJSON(wsMessage{Type: "order-updated", OrderID: 3, Order: &Order{ID: 3, Status: "Prepared"}})
	}
	// the drop
}

func TestSubscribe_ReconnectsOnceAndRefetches(t *testing.T) {
	stream := &orderStream{}
	srv := httptest.NewServer(stream)
	t.Cleanup(srv.Close)

	session := newSession(NewClient(srv.URL), "good-token", &User{ID: 7})

	var mu sync.Mutex
	var statuses []string
	cancel, err := session.Subscribe(context.Background(), 3, func(o *Order) {
		mu.Lock()
		statuses = append(statuses, o.Status)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"Prepared", "Out for delivery"}, statuses)
	mu.Unlock()

	// the second drop ends the subscription without a third attempt
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 2, stream.connects.Load())
	assert.EqualValues(t, 1, stream.fetches.Load())
}

func TestSubscribe_EndsAfterSecondDropWithoutCancel(t *testing.T) {
	stream := &orderStream{}
	srv := httptest.NewServer(stream)
	t.Cleanup(srv.Close)

	session := newSession(NewClient(srv.URL), "good-token", &User{ID: 7})
	w, _, err := session.subscribe(context.Background(), 3, func(*Order) {})
	require.NoError(t, err)

	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still open after the second drop")
	}
	assert.EqualValues(t, 2, stream.connects.Load())
}

func TestSubscribe_JoinRefused(t *testing.T) {
	srv := httptest.NewServer(&orderStream{})
	t.Cleanup(srv.Close)

	session := newSession(NewClient(srv.URL), "good-token", &User{ID: 7})
	_, err := session.Subscribe(context.Background(), 4, func(*Order) {})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "You cannot track this order", apiErr.Message)

	expired := newSession(NewClient(srv.URL), "stale", &User{ID: 7})
	_, err = expired.Subscribe(context.Background(), 3, func(*Order) {})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, expired.LoggedIn())
}
