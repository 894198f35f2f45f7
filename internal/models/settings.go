package models

import "time"

// PricingSetting holds an admin-editable pricing parameter such as the tax
// rate or the delivery charge.
type PricingSetting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"` // tax_rate, delivery_charge
	Value     float64   `json:"value"`
	IsActive  bool      `json:"isActive" gorm:"default:true"`
	UpdatedBy uint      `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	SettingTaxRate        = "tax_rate"
	SettingDeliveryCharge = "delivery_charge"
)
