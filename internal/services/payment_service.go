package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"pizzeria/internal/models"
	"pizzeria/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrOrderCancelled = errors.New("order is cancelled")

// PaymentGateway is the hosted checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error)
	GetSession(ctx context.Context, sessionID string) (*payment.Session, error)
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, userID, orderID uint) (*payment.Session, error)
	VerifyPayment(ctx context.Context, userID uint, sessionID string, orderID uint) (*models.Order, error)
}

type paymentService struct {
	orders     OrderService
	gateway    PaymentGateway
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

func NewPaymentService(orders OrderService, gateway PaymentGateway, successURL, cancelURL string, logger *zap.Logger) PaymentService {
	return &paymentService{
		orders:     orders,
		gateway:    gateway,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     logger,
	}
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, userID, orderID uint) (*payment.Session, error) {
	order, err := s.orders.GetOrder(ctx, userID, false, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.PaymentMode != string(models.PaymentCard):
		return nil, ErrPaymentNotRequired
	case order.PaymentStatus == string(models.PaymentPaid):
		return nil, ErrAlreadyPaid
	case order.Status == string(models.StatusCancelled):
		return nil, ErrOrderCancelled
	}

	// a new key per attached session lets an expired session be replaced
	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte(order.OrderNumber+"/"+order.PaymentSessionID))
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.Customer.Email,
		Items: []payment.LineItem{
			{Name: "Order " + order.OrderNumber, UnitPrice: order.Pricing.Total, Quantity: 1},
		},
		SuccessURL:     withOrderParams(s.successURL, order.ID, true),
		CancelURL:      withOrderParams(s.cancelURL, order.ID, false),
		IdempotencyKey: key.String(),
	})
	if err != nil {
		s.logger.Error("checkout session create failed", zap.Uint("order_id", order.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := s.orders.AttachPaymentSession(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}
	s.logger.Info("checkout session created", zap.Uint("order_id", order.ID), zap.String("session_id", session.ID))
	return session, nil
}

// VerifyPayment asks the gateway for the session outcome and records it on
// the order. An expired session marks the payment FAILED.
func (s *paymentService) VerifyPayment(ctx context.Context, userID uint, sessionID string, orderID uint) (*models.Order, error) {
	if sessionID == "" {
		return nil, ValidationErrors{"sessionId": "Payment session is required"}
	}
	order, err := s.orders.GetOrderByPaymentSession(ctx, userID, sessionID)
	if errors.Is(err, ErrOrderNotFound) || (err == nil && order.ID != orderID) {
		return nil, ValidationErrors{"sessionId": "Payment session does not belong to this order"}
	}
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout session: %w", err)
	}

	switch {
	case session.Paid():
		return s.orders.UpdatePaymentStatus(ctx, order.ID, string(models.PaymentPaid))
	case session.Expired():
		if _, err := s.orders.UpdatePaymentStatus(ctx, order.ID, string(models.PaymentFailed)); err != nil {
			return nil, err
		}
	}
	return nil, ErrPaymentNotComplete
}

func withOrderParams(base string, orderID uint, withSession bool) string {
	// the gateway substitutes {CHECKOUT_SESSION_ID} literally, so it must stay unescaped
	q := url.Values{}
	q.Set("order_id", fmt.Sprint(orderID))
	sep := "?"
	if u, err := url.Parse(base); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	out := base + sep + q.Encode()
	if withSession {
		out += "&session_id={CHECKOUT_SESSION_ID}"
	}
	return out
}
