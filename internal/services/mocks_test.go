package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pizzeria/internal/events"
	"pizzeria/internal/models"
	"pizzeria/internal/repository"
	"pizzeria/pkg/payment"
)

type mockUserRepository struct {
	m      sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[uint]*models.User{}}
}

func (r *mockUserRepository) Create(_ context.Context, user *models.User) error {
	r.m.Lock()
	defer r.m.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *mockUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.m.Lock()
	defer r.m.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *mockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *mockUserRepository) Update(_ context.Context, user *models.User) error {
	r.m.Lock()
	defer r.m.Unlock()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *mockUserRepository) GetAll(context.Context) ([]models.User, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

type mockProductRepository struct {
	m        sync.Mutex
	products map[uint]*models.Product
	nextID   uint
}

func newMockProductRepository(products ...*models.Product) *mockProductRepository {
	r := &mockProductRepository{products: map[uint]*models.Product{}}
	for _, p := range products {
		r.Create(context.Background(), p)
	}
	return r
}

func (r *mockProductRepository) Create(_ context.Context, p *models.Product) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.nextID++
	p.ID = r.nextID
	stored := *p
	r.products[p.ID] = &stored
	return nil
}

func (r *mockProductRepository) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.m.Lock()
	defer r.m.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *mockProductRepository) List(_ context.Context, f repository.ProductFilter) ([]models.Product, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []models.Product
	for _, p := range r.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Published != nil && p.Published != *f.Published {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *mockProductRepository) Update(_ context.Context, p *models.Product) error {
	r.m.Lock()
	defer r.m.Unlock()
	stored := *p
	r.products[p.ID] = &stored
	return nil
}

func (r *mockProductRepository) Delete(_ context.Context, id uint) error {
	r.m.Lock()
	defer r.m.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type mockCartRepository struct {
	m      sync.Mutex
	carts  map[uint]*models.Cart
	nextID uint
	reads  int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[uint]*models.Cart{}}
}

func (r *mockCartRepository) GetByUserID(_ context.Context, userID uint) (*models.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.reads++
	c, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *c
	out.Items = append([]models.CartItem(nil), c.Items...)
	return &out, nil
}

func (r *mockCartRepository) AddItem(_ context.Context, userID uint, item *models.CartItem) error {
	r.m.Lock()
	defer r.m.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		c = &models.Cart{ID: userID, UserID: userID}
		r.carts[userID] = c
	}
	for i := range c.Items {
		line := &c.Items[i]
		if line.ProductID == item.ProductID && line.Customization.Key() == item.Customization.Key() {
			if line.Quantity+item.Quantity > models.MaxItemQuantity {
				return repository.ErrQuantityExceeded
			}
			line.Quantity += item.Quantity
			line.UnitPrice = item.UnitPrice
			return nil
		}
	}
	r.nextID++
	item.ID = r.nextID
	item.CartID = c.ID
	c.Items = append(c.Items, *item)
	return nil
}

func (r *mockCartRepository) UpdateItemQuantity(_ context.Context, userID, itemID uint, quantity int) error {
	r.m.Lock()
	defer r.m.Unlock()
	if c, ok := r.carts[userID]; ok {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (r *mockCartRepository) RemoveItem(_ context.Context, userID, itemID uint) error {
	r.m.Lock()
	defer r.m.Unlock()
	if c, ok := r.carts[userID]; ok {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (r *mockCartRepository) Clear(_ context.Context, userID uint) error {
	r.m.Lock()
	defer r.m.Unlock()
	if c, ok := r.carts[userID]; ok {
		c.Items = nil
	}
	return nil
}

type mockPromoRepository struct {
	m      sync.Mutex
	promos map[uint]*models.Promo
	nextID uint
}

func newMockPromoRepository(promos ...*models.Promo) *mockPromoRepository {
	r := &mockPromoRepository{promos: map[uint]*models.Promo{}}
	for _, p := range promos {
		r.Create(context.Background(), p)
	}
	return r
}

func (r *mockPromoRepository) Create(_ context.Context, p *models.Promo) error {
	r.m.Lock()
	defer r.m.Unlock()
	for _, existing := range r.promos {
		if existing.Code == p.Code {
			return repository.ErrDuplicateKey
		}
	}
	r.nextID++
	p.ID = r.nextID
	stored := *p
	r.promos[p.ID] = &stored
	return nil
}

func (r *mockPromoRepository) GetByID(_ context.Context, id uint) (*models.Promo, error) {
	r.m.Lock()
	defer r.m.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *mockPromoRepository) GetByCode(_ context.Context, code string) (*models.Promo, error) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, p := range r.promos {
		if p.Code == code {
			out := *p
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *mockPromoRepository) List(_ context.Context, f repository.PromoFilter) ([]models.Promo, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []models.Promo
	for _, p := range r.promos {
		if f.Active != nil && p.Active != *f.Active {
			continue
		}
		if f.DiscountType != "" && p.DiscountType != f.DiscountType {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *mockPromoRepository) Update(_ context.Context, p *models.Promo) error {
	r.m.Lock()
	defer r.m.Unlock()
	stored := *p
	stored.UsedCount = r.promos[p.ID].UsedCount
	r.promos[p.ID] = &stored
	return nil
}

func (r *mockPromoRepository) Delete(_ context.Context, id uint) error {
	r.m.Lock()
	defer r.m.Unlock()
	if _, ok := r.promos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.promos, id)
	return nil
}

// redeem mirrors the conditional update done inside the order transaction.
func (r *mockPromoRepository) redeem(id uint) error {
	r.m.Lock()
	defer r.m.Unlock()
	p, ok := r.promos[id]
	if !ok || (p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit) {
		return repository.ErrPromoExhausted
	}
	p.UsedCount++
	return nil
}

type mockOrderRepository struct {
	m      sync.Mutex
	orders map[uint]*models.Order
	promos *mockPromoRepository
	nextID uint
}

func newMockOrderRepository(promos *mockPromoRepository) *mockOrderRepository {
	return &mockOrderRepository{orders: map[uint]*models.Order{}, promos: promos}
}

func (r *mockOrderRepository) Create(_ context.Context, order *models.Order, promoID *uint) error {
	if promoID != nil {
		if err := r.promos.redeem(*promoID); err != nil {
			return err
		}
	}
	r.m.Lock()
	defer r.m.Unlock()
	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uint(i + 1)
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *mockOrderRepository) GetByID(_ context.Context, id uint) (*models.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *mockOrderRepository) GetByPaymentSession(_ context.Context, sessionID string) (*models.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, o := range r.orders {
		if o.PaymentSessionID == sessionID {
			return copyOrder(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *mockOrderRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	return r.List(ctx, repository.OrderFilter{UserID: &userID})
}

func (r *mockOrderRepository) List(_ context.Context, f repository.OrderFilter) ([]models.Order, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *mockOrderRepository) UpdateFields(_ context.Context, id uint, expected repository.OrderState, fields map[string]interface{}) error {
	r.m.Lock()
	defer r.m.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != expected.Status || o.PaymentStatus != expected.PaymentStatus {
		return repository.ErrConflict
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(string)
		case "payment_status":
			o.PaymentStatus = v.(string)
		case "refund_status":
			o.RefundStatus = v.(string)
		case "payment_session_id":
			o.PaymentSessionID = v.(string)
		case "cancelled_at":
			o.CancelledAt = v.(*time.Time)
		}
	}
	return nil
}

func (r *mockOrderRepository) Stats(context.Context) (*repository.OrderStats, error) {
	r.m.Lock()
	defer r.m.Unlock()
	stats := &repository.OrderStats{OrdersByState: map[string]int64{}}
	for _, o := range r.orders {
		stats.TotalOrders++
		stats.OrdersByState[o.Status]++
		if o.Status != string(models.StatusCancelled) {
			stats.TotalRevenue += o.Pricing.Total
		}
	}
	return stats, nil
}

func (r *mockOrderRepository) SalesByDay(context.Context, time.Time) ([]repository.DailySales, error) {
	return nil, nil
}

func (r *mockOrderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	all, _ := r.List(ctx, repository.OrderFilter{})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func copyOrder(o *models.Order) *models.Order {
	out := *o
	out.Items = append([]models.OrderItem(nil), o.Items...)
	return &out
}

type mockOrderItemRepository struct{}

func (mockOrderItemRepository) TopProducts(context.Context, int) ([]repository.ProductSales, error) {
	return []repository.ProductSales{{ProductID: 1, ProductName: "Margherita", Quantity: 2}}, nil
}

type mockSettingsRepository struct {
	m        sync.Mutex
	settings map[string]models.PricingSetting
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{settings: map[string]models.PricingSetting{}}
}

func (r *mockSettingsRepository) GetSetting(_ context.Context, name string) (*models.PricingSetting, error) {
	r.m.Lock()
	defer r.m.Unlock()
	s, ok := r.settings[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *mockSettingsRepository) ListSettings(context.Context) ([]models.PricingSetting, error) {
	r.m.Lock()
	defer r.m.Unlock()
	var out []models.PricingSetting
	for _, s := range r.settings {
		out = append(out, s)
	}
	return out, nil
}

func (r *mockSettingsRepository) UpsertSetting(_ context.Context, s *models.PricingSetting) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.settings[s.Name] = *s
	return nil
}

type recordingNotifier struct {
	m       sync.Mutex
	updates []models.Order
}

func (n *recordingNotifier) NotifyOrderUpdated(_ context.Context, order *models.Order) {
	n.m.Lock()
	defer n.m.Unlock()
	n.updates = append(n.updates, *order)
}

type recordingPublisher struct {
	m      sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.m.Lock()
	defer p.m.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type mockGateway struct {
	created  []payment.CheckoutRequest
	sessions map[string]*payment.Session
	err      error
}

func (g *mockGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, req)
	s := &payment.Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1", Status: "open", PaymentStatus: "unpaid"}
	g.sessions[s.ID] = s
	return s, nil
}

func (g *mockGateway) GetSession(_ context.Context, id string) (*payment.Session, error) {
	if s, ok := g.sessions[id]; ok {
		return s, nil
	}
	return nil, &payment.APIError{StatusCode: 404, Message: "No such checkout.session"}
}
