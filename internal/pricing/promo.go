package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeShipping DiscountType = "free-shipping"
)

func ParseDiscountType(s string) (DiscountType, bool) {
	switch DiscountType(s) {
	case DiscountPercentage, DiscountFixed, DiscountFreeShipping:
		return DiscountType(s), true
	}
	return "", false
}

type RejectionReason string

const (
	ReasonNotFound       RejectionReason = "not_found"
	ReasonInactive       RejectionReason = "inactive"
	ReasonNotStarted     RejectionReason = "not_started"
	ReasonExpired        RejectionReason = "expired"
	ReasonBelowMinimum   RejectionReason = "below_minimum"
	ReasonUsageExhausted RejectionReason = "usage_exhausted"
)

// PromoRejection explains why a promo code cannot be applied.
type PromoRejection struct {
	Reason  RejectionReason `json:"reason"`
	Message string          `json:"message"`
}

func (r *PromoRejection) Error() string {
	return r.Message
}

var rejectionMessages = map[RejectionReason]string{
	ReasonNotFound:       "Invalid promo code",
	ReasonInactive:       "This promo code is no longer active",
	ReasonNotStarted:     "This promo code is not valid yet",
	ReasonExpired:        "This promo code has expired",
	ReasonBelowMinimum:   "Order amount is below the minimum for this promo code",
	ReasonUsageExhausted: "This promo code has reached its usage limit",
}

// Reject builds a rejection with the standard message for reason.
func Reject(reason RejectionReason) *PromoRejection {
	return &PromoRejection{Reason: reason, Message: rejectionMessages[reason]}
}

// PromoTerms are the eligibility rules and discount definition of a promo.
type PromoTerms struct {
	Code           string
	Type           DiscountType
	Value          float64
	MinOrderAmount *float64
	MaxDiscount    *float64
	ValidFrom      time.Time
	ValidTo        time.Time
	UsageLimit     *int
	UsedCount      int
	Active         bool
}

// Discount is the outcome of a successful promo evaluation. A free-shipping
// promo yields Amount 0 and FreeDelivery true; the caller zeroes the
// delivery charge.
type Discount struct {
	Code         string       `json:"code"`
	Type         DiscountType `json:"discountType"`
	Amount       float64      `json:"discount"`
	FreeDelivery bool         `json:"freeDelivery"`
}

// Evaluate checks the promo against orderAmount at time now and computes the
// discount. Checks run in order: active flag, validity window, minimum order
// amount, usage limit. A promo outside its window is rejected no matter what
// the other fields say.
func Evaluate(terms PromoTerms, orderAmount float64, now time.Time) (Discount, error) {
	if !terms.Active {
		return Discount{}, Reject(ReasonInactive)
	}
	if now.Before(terms.ValidFrom) {
		return Discount{}, Reject(ReasonNotStarted)
	}
	if now.After(terms.ValidTo) {
		return Discount{}, Reject(ReasonExpired)
	}
	if terms.MinOrderAmount != nil && orderAmount < *terms.MinOrderAmount {
		return Discount{}, &PromoRejection{
			Reason:  ReasonBelowMinimum,
			Message: fmt.Sprintf("Minimum order amount of %s is required for this promo code", decimal.NewFromFloat(*terms.MinOrderAmount).String()),
		}
	}
	if terms.UsageLimit != nil && terms.UsedCount >= *terms.UsageLimit {
		return Discount{}, Reject(ReasonUsageExhausted)
	}

	result := Discount{Code: terms.Code, Type: terms.Type}
	amount := decimal.NewFromFloat(orderAmount)

	var discount decimal.Decimal
	switch terms.Type {
	case DiscountPercentage:
		discount = amount.Mul(decimal.NewFromFloat(terms.Value)).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		discount = decimal.NewFromFloat(terms.Value)
		if discount.GreaterThan(amount) {
			discount = amount
		}
	case DiscountFreeShipping:
		result.FreeDelivery = true
		return result, nil
	default:
		return Discount{}, fmt.Errorf("unknown discount type %q", terms.Type)
	}

	if terms.MaxDiscount != nil {
		limit := decimal.NewFromFloat(*terms.MaxDiscount)
		if discount.GreaterThan(limit) {
			discount = limit
		}
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	result.Amount = discount.Round(2).InexactFloat64()
	return result, nil
}
