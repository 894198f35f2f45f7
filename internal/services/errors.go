package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrOrderNotFound      = errors.New("order not found")
	ErrPromoNotFound      = errors.New("promo not found")
	ErrPromoCodeTaken     = errors.New("a promo with this code already exists")
	ErrForbidden          = errors.New("you do not have access to this resource")
	ErrOrderChanged       = errors.New("order was updated by someone else, please reload")
	ErrPaymentNotRequired = errors.New("order is not paid by card")
	ErrAlreadyPaid        = errors.New("order is already paid")
	ErrPaymentNotComplete = errors.New("payment has not been completed")
	ErrUnknownSetting     = errors.New("unknown pricing setting")
)

// ValidationErrors maps an input field to a message suitable for inline
// display next to that field.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field, msg := range v {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, "; ")
}

func (v ValidationErrors) add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

// err returns nil when nothing was recorded.
func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
