// Package pricing holds the pure money rules of checkout: order totals and
// promo evaluation. It has no storage or transport dependencies.
package pricing

import "github.com/shopspring/decimal"

const (
	DefaultTaxRate        = 0.18
	DefaultDeliveryCharge = 100.0
)

type LineItem struct {
	UnitPrice float64
	Quantity  int
}

// Totals is the pricing breakdown of an order. Discount is the amount that
// was actually applied, so Total == Subtotal + Taxes + DeliveryCharge - Discount
// always holds.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	Taxes          float64 `json:"taxes"`
	DeliveryCharge float64 `json:"deliveryCharges"`
	Discount       float64 `json:"discount"`
	Total          float64 `json:"total"`
}

// ComputeTotals sums the line items, adds tax rounded to whole currency units
// and the delivery charge, and subtracts the discount. The discount is clamped
// so that the total never drops below zero.
func ComputeTotals(items []LineItem, taxRate, deliveryCharge, discount float64) Totals {
	subtotal := Subtotal(items)
	taxes := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(0)
	delivery := decimal.NewFromFloat(deliveryCharge)
	gross := subtotal.Add(taxes).Add(delivery)

	applied := decimal.NewFromFloat(discount)
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	if applied.GreaterThan(gross) {
		applied = gross
	}

	return Totals{
		Subtotal:       subtotal.InexactFloat64(),
		Taxes:          taxes.InexactFloat64(),
		DeliveryCharge: delivery.InexactFloat64(),
		Discount:       applied.InexactFloat64(),
		Total:          gross.Sub(applied).InexactFloat64(),
	}
}

// Subtotal is the sum of unit price times quantity over all items.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}
