package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizzeria/internal/events"
	"pizzeria/internal/models"
	"pizzeria/internal/pricing"
	"pizzeria/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrRefundTransition = errors.New("refund status change is not allowed")

const paymentUpdateAttempts = 3

type PlaceOrderInput struct {
	Customer        models.CustomerInfo `json:"customer"`
	DeliveryAddress string              `json:"deliveryAddress"`
	Comment         string              `json:"comment"`
	PaymentMode     string              `json:"paymentMode"`
	PromoCode       string              `json:"promoCode"`
}

// OrderNotifier pushes order snapshots to clients watching the order.
type OrderNotifier interface {
	NotifyOrderUpdated(ctx context.Context, order *models.Order)
}

type Dashboard struct {
	Stats        *repository.OrderStats    `json:"stats"`
	RecentOrders []models.Order            `json:"recentOrders"`
	TopProducts  []repository.ProductSales `json:"topProducts"`
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, userID uint, isAdmin bool, id uint) (*models.Order, error)
	GetOrderByPaymentSession(ctx context.Context, userID uint, sessionID string) (*models.Order, error)
	GetOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error)
	GetAllOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error)
	CancelOrder(ctx context.Context, userID uint, id uint) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uint, status string) (*models.Order, error)
	UpdateRefundStatus(ctx context.Context, id uint, status string) (*models.Order, error)
	AttachPaymentSession(ctx context.Context, id uint, sessionID string) error
	Stats(ctx context.Context) (*repository.OrderStats, error)
	Sales(ctx context.Context, days int) ([]repository.DailySales, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type orderService struct {
	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
	cartRepo      repository.CartRepository
	carts         CartService
	promos        PromoService
	settings      SettingsService
	notifier      OrderNotifier
	publisher     events.Publisher
	logger        *zap.Logger
	now           func() time.Time
}

type OrderServiceDeps struct {
	OrderRepo     repository.OrderRepository
	OrderItemRepo repository.OrderItemRepository
	CartRepo      repository.CartRepository
	Carts         CartService
	Promos        PromoService
	Settings      SettingsService
	Notifier      OrderNotifier
	Publisher     events.Publisher
	Logger        *zap.Logger
}

func NewOrderService(deps OrderServiceDeps) OrderService {
	return &orderService{
		orderRepo:     deps.OrderRepo,
		orderItemRepo: deps.OrderItemRepo,
		cartRepo:      deps.CartRepo,
		carts:         deps.Carts,
		promos:        deps.Promos,
		settings:      deps.Settings,
		notifier:      deps.Notifier,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		now:           time.Now,
	}
}

// PlaceOrder turns the user's cart into an order. Prices are taken from the
// cart lines, the promo is evaluated once against the subtotal and redeemed
// in the same transaction that stores the order.
func (s *orderService) PlaceOrder(ctx context.Context, userID uint, in PlaceOrderInput) (*models.Order, error) {
	in.PromoCode = normalizeCode(in.PromoCode)
	in.Customer.Email = normalizeEmail(in.Customer.Email)
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	settings, err := s.settings.Effective(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.LineItem, 0, len(cart.Items))
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		lines = append(lines, pricing.LineItem{UnitPrice: ci.UnitPrice, Quantity: ci.Quantity})
		items = append(items, models.OrderItem{
			ProductID:     ci.ProductID,
			ProductName:   ci.ProductName,
			Image:         ci.Image,
			Customization: ci.Customization,
			Quantity:      ci.Quantity,
			UnitPrice:     ci.UnitPrice,
			TotalPrice:    pricing.Subtotal([]pricing.LineItem{{UnitPrice: ci.UnitPrice, Quantity: ci.Quantity}}).InexactFloat64(),
		})
	}

	deliveryCharge := settings.DeliveryCharge
	var discount float64
	var promoID *uint
	if in.PromoCode != "" {
		promo, d, err := s.promos.Evaluate(ctx, in.PromoCode, pricing.Subtotal(lines).InexactFloat64())
		if err != nil {
			return nil, err
		}
		promoID = &promo.ID
		discount = d.Amount
		if d.FreeDelivery {
			deliveryCharge = 0
		}
	}

	totals := pricing.ComputeTotals(lines, settings.TaxRate, deliveryCharge, discount)
	order := &models.Order{
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		Customer:        in.Customer,
		Items:           items,
		Pricing:         orderPricing(totals),
		PromoCode:       in.PromoCode,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		Comment:         in.Comment,
		PaymentMode:     in.PaymentMode,
		PaymentStatus:   string(models.PaymentPending),
		Status:          string(models.StatusReceived),
		RefundStatus:    string(models.RefundNone),
	}

	if err := s.orderRepo.Create(ctx, order, promoID); err != nil {
		if errors.Is(err, repository.ErrPromoExhausted) {
			return nil, pricing.Reject(pricing.ReasonUsageExhausted)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if _, err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Error("failed to clear cart after order", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", userID),
		zap.Float64("total", order.Pricing.Total),
		zap.String("promo", order.PromoCode),
	)
	s.publish(ctx, events.OrderCreated, order)
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID uint, isAdmin bool, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) GetOrderByPaymentSession(ctx context.Context, userID uint, sessionID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByPaymentSession(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) GetOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(ctx, userID)
}

func (s *orderService) GetAllOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	return s.orderRepo.List(ctx, filter)
}

// UpdateStatus is the admin transition: forward along the progression, or
// to Cancelled while cancellation is still allowed.
func (s *orderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, ValidationErrors{"status": "Invalid order status"}
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	current := models.OrderStatus(order.Status)
	if err := current.CanTransitionTo(next); err != nil {
		return nil, err
	}
	if next == models.StatusCancelled {
		return s.cancel(ctx, order)
	}

	if err := s.update(ctx, order, map[string]interface{}{"status": string(next)}); err != nil {
		return nil, err
	}
	return s.changed(ctx, events.OrderStatusChanged, id)
}

func (s *orderService) CancelOrder(ctx context.Context, userID uint, id uint) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, false, id)
	if err != nil {
		return nil, err
	}
	if err := models.OrderStatus(order.Status).CanCancel(); err != nil {
		return nil, err
	}
	return s.cancel(ctx, order)
}

func (s *orderService) cancel(ctx context.Context, order *models.Order) (*models.Order, error) {
	now := s.now()
	fields := map[string]interface{}{
		"status":       string(models.StatusCancelled),
		"cancelled_at": &now,
	}
	if order.PaymentStatus == string(models.PaymentPaid) && order.RefundStatus == string(models.RefundNone) {
		fields["refund_status"] = string(models.RefundPending)
	}
	if err := s.update(ctx, order, fields); err != nil {
		return nil, err
	}
	s.logger.Info("order cancelled", zap.Uint("order_id", order.ID), zap.String("from", order.Status))
	return s.changed(ctx, events.OrderCancelled, order.ID)
}

// UpdatePaymentStatus records a payment outcome. A payment that lands on an
// already cancelled order opens a refund. The write is retried when a
// concurrent transition moved the order in between, since the outcome comes
// from the gateway and must not be lost.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	next, ok := models.ParsePaymentStatus(status)
	if !ok {
		return nil, ValidationErrors{"paymentStatus": "Invalid payment status"}
	}

	var err error
	for attempt := 0; attempt < paymentUpdateAttempts; attempt++ {
		var order *models.Order
		order, err = s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if order.PaymentStatus == string(next) {
			return order, nil
		}
		if order.PaymentStatus == string(models.PaymentPaid) {
			return nil, ErrAlreadyPaid
		}

		fields := map[string]interface{}{"payment_status": string(next)}
		if next == models.PaymentPaid && order.Status == string(models.StatusCancelled) && order.RefundStatus == string(models.RefundNone) {
			fields["refund_status"] = string(models.RefundPending)
		}
		err = s.update(ctx, order, fields)
		if errors.Is(err, ErrOrderChanged) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, ok := fields["refund_status"]; ok {
			s.logger.Warn("payment received for cancelled order, refund pending", zap.Uint("order_id", id))
		}
		return s.changed(ctx, events.OrderPaymentUpdated, id)
	}
	return nil, err
}

func (s *orderService) UpdateRefundStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	next := models.RefundStatus(status)
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.RefundStatus(order.RefundStatus).CanTransitionTo(next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefundTransition, err)
	}

	if err := s.update(ctx, order, map[string]interface{}{"refund_status": string(next)}); err != nil {
		return nil, err
	}
	return s.changed(ctx, events.OrderRefundUpdated, id)
}

func (s *orderService) AttachPaymentSession(ctx context.Context, id uint, sessionID string) error {
	order, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.update(ctx, order, map[string]interface{}{"payment_session_id": sessionID})
}

func (s *orderService) Stats(ctx context.Context) (*repository.OrderStats, error) {
	return s.orderRepo.Stats(ctx)
}

func (s *orderService) Sales(ctx context.Context, days int) ([]repository.DailySales, error) {
	if days <= 0 || days > 365 {
		days = 7
	}
	since := s.now().AddDate(0, 0, -days+1).Truncate(24 * time.Hour)
	return s.orderRepo.SalesByDay(ctx, since)
}

func (s *orderService) Dashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	recent, err := s.orderRepo.Recent(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	top, err := s.orderItemRepo.TopProducts(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	return &Dashboard{Stats: stats, RecentOrders: recent, TopProducts: top}, nil
}

func (s *orderService) load(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// update writes fields guarded by the status and payment status the order
// had when it was read.
func (s *orderService) update(ctx context.Context, order *models.Order, fields map[string]interface{}) error {
	err := s.orderRepo.UpdateFields(ctx, order.ID, repository.StateOf(order), fields)
	if errors.Is(err, repository.ErrConflict) {
		return ErrOrderChanged
	}
	return err
}

// changed reloads the order, pushes it to watchers and emits the event.
func (s *orderService) changed(ctx context.Context, t events.Type, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyOrderUpdated(ctx, order)
	}
	s.publish(ctx, t, order)
	return order, nil
}

func (s *orderService) publish(ctx context.Context, t events.Type, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(t, order)); err != nil {
		s.logger.Warn("failed to publish order event", zap.String("type", string(t)), zap.Uint("order_id", order.ID), zap.Error(err))
	}
}

func orderPricing(t pricing.Totals) models.OrderPricing {
	return models.OrderPricing{
		Subtotal:        t.Subtotal,
		Taxes:           t.Taxes,
		DeliveryCharges: t.DeliveryCharge,
		Discount:        t.Discount,
		Total:           t.Total,
	}
}

func newOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:12])
}
