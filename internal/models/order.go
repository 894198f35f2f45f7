package models

import (
	"fmt"
	"time"
)

type Order struct {
	ID               uint         `json:"id" gorm:"primaryKey"`
	OrderNumber      string       `json:"orderNumber" gorm:"uniqueIndex;not null"`
	UserID           uint         `json:"userId" gorm:"index;not null"`
	Customer         CustomerInfo `json:"customer" gorm:"serializer:json;type:jsonb"`
	Items            []OrderItem  `json:"items" gorm:"foreignKey:OrderID"`
	Pricing          OrderPricing `json:"pricing" gorm:"embedded;embeddedPrefix:pricing_"`
	PromoCode        string       `json:"promoCode,omitempty"`
	DeliveryAddress  string       `json:"deliveryAddress" gorm:"type:text;not null"`
	Comment          string       `json:"comment,omitempty" gorm:"type:text"`
	PaymentMode      string       `json:"paymentMode" gorm:"not null"`                        // card, cash
	PaymentStatus    string       `json:"paymentStatus" gorm:"index;default:'PENDING'"`       // PENDING, PAID, FAILED
	PaymentSessionID string       `json:"paymentSessionId,omitempty" gorm:"index"`
	Status           string       `json:"status" gorm:"index;default:'Received'"`
	RefundStatus     string       `json:"refundStatus" gorm:"default:'NONE'"` // NONE, PENDING, COMPLETED, FAILED
	CancelledAt      *time.Time   `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// OrderPricing is computed once when the order is created and never recomputed.
// Total == Subtotal + Taxes + DeliveryCharges - Discount.
type OrderPricing struct {
	Subtotal        float64 `json:"subtotal"`
	Taxes           float64 `json:"taxes"`
	DeliveryCharges float64 `json:"deliveryCharges"`
	Discount        float64 `json:"discount"`
	Total           float64 `json:"total"`
}

type OrderStatus string

const (
	StatusReceived       OrderStatus = "Received"
	StatusConfirmed      OrderStatus = "Confirmed"
	StatusPrepared       OrderStatus = "Prepared"
	StatusOutForDelivery OrderStatus = "Out for delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// OrderProgression is the linear fulfilment sequence. Cancelled sits outside it.
var OrderProgression = []OrderStatus{
	StatusReceived,
	StatusConfirmed,
	StatusPrepared,
	StatusOutForDelivery,
	StatusDelivered,
}

// TransitionError is returned when a status change is not allowed. Message is
// safe to show to the customer.
type TransitionError struct {
	From    OrderStatus
	To      OrderStatus
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	if status == StatusCancelled || status.step() >= 0 {
		return status, true
	}
	return "", false
}

func (s OrderStatus) step() int {
	for i, st := range OrderProgression {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanCancel reports whether an order in this status may still be cancelled.
func (s OrderStatus) CanCancel() error {
	switch s {
	case StatusOutForDelivery:
		return &TransitionError{From: s, To: StatusCancelled, Message: "Order cannot be cancelled once it is out for delivery"}
	case StatusDelivered:
		return &TransitionError{From: s, To: StatusCancelled, Message: "Order cannot be cancelled because it has already been delivered"}
	case StatusCancelled:
		return &TransitionError{From: s, To: StatusCancelled, Message: "Order is already cancelled"}
	}
	if s.step() < 0 {
		return &TransitionError{From: s, To: StatusCancelled, Message: fmt.Sprintf("Unknown order status %q", s)}
	}
	return nil
}

// CanTransitionTo validates an admin-driven status change. Only forward moves
// along the progression are accepted; steps may be skipped.
func (s OrderStatus) CanTransitionTo(next OrderStatus) error {
	if next == StatusCancelled {
		return s.CanCancel()
	}
	if s.IsTerminal() {
		return &TransitionError{From: s, To: next, Message: fmt.Sprintf("Order is already %s", s)}
	}
	to := next.step()
	if to < 0 {
		return &TransitionError{From: s, To: next, Message: fmt.Sprintf("Unknown order status %q", next)}
	}
	if to <= s.step() {
		return &TransitionError{From: s, To: next, Message: fmt.Sprintf("Order cannot move from %s back to %s", s, next)}
	}
	return nil
}

// Progress is the completion percentage shown on the tracking bar.
func (s OrderStatus) Progress() int {
	step := s.step()
	if step < 0 {
		return 0
	}
	return step * 100 / (len(OrderProgression) - 1)
}

type PaymentMode string

const (
	PaymentCard PaymentMode = "card"
	PaymentCash PaymentMode = "cash"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return PaymentStatus(s), true
	}
	return "", false
}

// RefundStatus tracks the refund of a cancelled, paid order. It is
// independent of the order status.
type RefundStatus string

const (
	RefundNone      RefundStatus = "NONE"
	RefundPending   RefundStatus = "PENDING"
	RefundCompleted RefundStatus = "COMPLETED"
	RefundFailed    RefundStatus = "FAILED"
)

func (r RefundStatus) CanTransitionTo(next RefundStatus) error {
	ok := false
	switch r {
	case RefundNone:
		ok = next == RefundPending
	case RefundPending:
		ok = next == RefundCompleted || next == RefundFailed
	}
	if !ok {
		return fmt.Errorf("refund cannot move from %s to %s", r, next)
	}
	return nil
}
